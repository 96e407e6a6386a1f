package layout

import (
	"fmt"
	"strings"
	"time"

	"sitebuilder/internal/section"
)

// CreateOptions tune CreateSection.
type CreateOptions struct {
	// Strict rejects type tags the registry does not know.
	Strict bool
	Now    func() time.Time
}

// CreateSection appends a new section of type typ with default data, assigns
// it a fresh id and selects it.
func CreateSection(doc Document, reg *section.Registry, typ string, opts CreateOptions) (Document, Section, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		// the stored document shape requires a non-empty type
		return doc, Section{}, fmt.Errorf("%w: empty type tag", ErrUnknownSectionType)
	}
	if opts.Strict && !reg.Known(typ) {
		return doc, Section{}, fmt.Errorf("%w: %s", ErrUnknownSectionType, typ)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	s := Section{
		ID:   nextID(doc, typ, now()),
		Type: typ,
		Data: reg.DefaultDataFor(typ),
	}
	out := doc.withSections()
	out.Sections = append(out.Sections, s)
	out.SelectedID = s.ID
	return out, Section{ID: s.ID, Type: s.Type, Data: s.Data.Clone()}, nil
}

// nextID builds "<type>-<unix millis>", suffixed when that id is taken.
func nextID(doc Document, typ string, at time.Time) string {
	base := fmt.Sprintf("%s-%d", typ, at.UnixMilli())
	id := base
	for n := 2; doc.IndexOf(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// RemoveSection deletes the section with id, clearing the selection if it
// pointed there.
func RemoveSection(doc Document, id string) (Document, error) {
	i := doc.IndexOf(id)
	if i < 0 {
		return doc, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	out := doc.withSections()
	out.Sections = append(out.Sections[:i], out.Sections[i+1:]...)
	if out.SelectedID == id {
		out.SelectedID = ""
	}
	return out, nil
}

// PatchSectionData replaces the data bag of a section wholesale. The bag is
// not validated.
func PatchSectionData(doc Document, id string, data section.Data) (Document, error) {
	i := doc.IndexOf(id)
	if i < 0 {
		return doc, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if data == nil {
		data = section.Data{}
	}
	out := doc.withSections()
	out.Sections[i].Data = data.Clone()
	return out, nil
}

// PatchSectionDataStrict is PatchSectionData for untrusted input: the bag must
// satisfy the section type's schema and the type must be registered.
func PatchSectionDataStrict(doc Document, reg *section.Registry, id string, data section.Data) (Document, error) {
	i := doc.IndexOf(id)
	if i < 0 {
		return doc, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	typ := doc.Sections[i].Type
	if !reg.Known(typ) {
		return doc, fmt.Errorf("%w: %s", ErrUnknownSectionType, typ)
	}
	if bad := reg.Validate(typ, data); len(bad) > 0 {
		return doc, &SchemaViolationError{SectionID: id, Type: typ, Keys: bad}
	}
	return PatchSectionData(doc, id, data)
}

// MoveSection relocates the section at from to index to, shifting the
// sections in between by one.
func MoveSection(doc Document, from, to int) (Document, error) {
	n := len(doc.Sections)
	if from < 0 || from >= n || to < 0 || to >= n {
		return doc, fmt.Errorf("%w: move %d -> %d with %d sections", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return doc, nil
	}
	out := doc.withSections()
	moved := out.Sections[from]
	out.Sections = append(out.Sections[:from], out.Sections[from+1:]...)
	out.Sections = append(out.Sections[:to], append([]Section{moved}, out.Sections[to:]...)...)
	return out, nil
}

// SelectSection points the selection cursor at id.
func SelectSection(doc Document, id string) (Document, error) {
	if doc.IndexOf(id) < 0 {
		return doc, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	doc.SelectedID = id
	return doc, nil
}

func ClearSelection(doc Document) Document {
	doc.SelectedID = ""
	return doc
}

// SetTheme sets the document theme. Palette membership is checked by callers
// holding the palette.
func SetTheme(doc Document, themeID string) Document {
	doc.Theme = themeID
	return doc
}

func Rename(doc Document, name string) Document {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	doc.Name = name
	return doc
}

// CheckInvariants verifies id uniqueness and selection integrity.
func CheckInvariants(doc Document) error {
	var violations []string
	seen := make(map[string]struct{}, len(doc.Sections))
	for i, s := range doc.Sections {
		if s.ID == "" {
			violations = append(violations, fmt.Sprintf("section %d has empty id", i))
			continue
		}
		if _, dup := seen[s.ID]; dup {
			violations = append(violations, fmt.Sprintf("duplicate section id %s", s.ID))
		}
		seen[s.ID] = struct{}{}
	}
	if doc.SelectedID != "" {
		if _, ok := seen[doc.SelectedID]; !ok {
			violations = append(violations, fmt.Sprintf("selection %s references no section", doc.SelectedID))
		}
	}
	if len(violations) > 0 {
		return &InvariantError{Violations: violations}
	}
	return nil
}
