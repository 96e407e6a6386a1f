package layout

import (
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// DefaultName labels documents created without a name.
const DefaultName = "Untitled Design"

// Section is one typed, positioned block of a page.
type Section struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data section.Data `json:"data"`
}

// Document is an ordered page of sections plus theme and selection cursor.
// SelectedID is editor state and is never persisted.
type Document struct {
	Name       string    `json:"name"`
	Theme      string    `json:"theme"`
	Sections   []Section `json:"layout"`
	SelectedID string    `json:"-"`
}

// New returns an empty document with the default theme and no selection.
func New(name string) Document {
	if name == "" {
		name = DefaultName
	}
	return Document{Name: name, Theme: theme.DefaultID, Sections: []Section{}}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		out.Sections[i] = Section{ID: s.ID, Type: s.Type, Data: s.Data.Clone()}
	}
	return out
}

// IndexOf returns the position of the section with id, or -1.
func (d Document) IndexOf(id string) int {
	for i, s := range d.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Section returns a deep copy of the section with id.
func (d Document) Section(id string) (Section, bool) {
	i := d.IndexOf(id)
	if i < 0 {
		return Section{}, false
	}
	s := d.Sections[i]
	return Section{ID: s.ID, Type: s.Type, Data: s.Data.Clone()}, true
}

// Selected returns the selected section, if any.
func (d Document) Selected() (Section, bool) {
	if d.SelectedID == "" {
		return Section{}, false
	}
	return d.Section(d.SelectedID)
}

// IDs lists section ids in order.
func (d Document) IDs() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.ID
	}
	return out
}

// Types lists section type tags in order.
func (d Document) Types() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Type
	}
	return out
}

// withSections returns a shallow copy of d with its own section slice.
func (d Document) withSections() Document {
	out := d
	out.Sections = append([]Section(nil), d.Sections...)
	if out.Sections == nil {
		out.Sections = []Section{}
	}
	return out
}
