package section

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitebuilder/internal/theme"
)

// RenderInput is what a render rule receives for one section.
type RenderInput struct {
	ID    string
	Type  string
	Data  Data
	Style theme.Style
}

// RenderRule writes the markup fragment of one section. It may fail on
// malformed data; callers are expected to contain the failure.
type RenderRule func(w io.Writer, in RenderInput) error

// Descriptor is the registry entry of one section type.
type Descriptor struct {
	Type     string
	Label    string
	Defaults Data
	Fields   []Field
	Check    func(Data) []string
	Render   RenderRule
}

// Registry maps type tags to their descriptor. It is read-only after construction.
type Registry struct {
	byType map[string]Descriptor
	order  []string
}

var titleCase = cases.Title(language.English)

// NewRegistry builds a registry from descriptors, in palette order.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byType: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		d.Type = strings.TrimSpace(d.Type)
		if d.Type == "" {
			return nil, errors.New("section type required")
		}
		if _, dup := r.byType[d.Type]; dup {
			return nil, fmt.Errorf("section type %s registered twice", d.Type)
		}
		if d.Label == "" {
			d.Label = titleCase.String(d.Type)
		}
		r.byType[d.Type] = d
		r.order = append(r.order, d.Type)
	}
	return r, nil
}

// Known reports whether t is a registered type tag.
func (r *Registry) Known(t string) bool {
	_, ok := r.byType[t]
	return ok
}

// Lookup returns the descriptor of a registered type.
func (r *Registry) Lookup(t string) (Descriptor, bool) {
	d, ok := r.byType[t]
	return d, ok
}

// Types lists registered descriptors in palette order.
func (r *Registry) Types() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t])
	}
	return out
}

// DefaultDataFor returns a fresh default bag. Unknown types get the common
// presentational fields only.
func (r *Registry) DefaultDataFor(t string) Data {
	base := commonDefaults()
	if d, ok := r.byType[t]; ok {
		return base.Merge(d.Defaults)
	}
	return base
}

// SchemaFor returns the schema of t, or the common-field schema for unknown types.
func (r *Registry) SchemaFor(t string) Schema {
	fields := append([]Field(nil), commonFields...)
	d, ok := r.byType[t]
	if !ok {
		return Schema{Type: t, Fields: fields}
	}
	return Schema{Type: t, Fields: append(fields, d.Fields...), check: d.Check}
}

// RenderRuleFor returns the type's render rule, or the placeholder rule.
func (r *Registry) RenderRuleFor(t string) RenderRule {
	if d, ok := r.byType[t]; ok && d.Render != nil {
		return d.Render
	}
	return RenderPlaceholder
}

// Validate returns offending keys of data against t's schema.
func (r *Registry) Validate(t string, data Data) []string {
	return r.SchemaFor(t).Validate(data)
}

// BaseStyleFor is the lowest style layer of t: the presentational values of
// its default bag.
func (r *Registry) BaseStyleFor(t string) theme.Style {
	s := Overrides(r.DefaultDataFor(t))
	s.BackgroundColor, s.TextColor = "", ""
	return s
}

// Overrides extracts the per-section style layer from a data bag. Values of
// the wrong kind are ignored.
func Overrides(d Data) theme.Style {
	get := func(k string) string {
		s, _ := d.String(k)
		return s
	}
	return theme.Style{
		BackgroundColor: get(KeyCustomBg),
		TextColor:       get(KeyCustomText),
		PaddingY:        get(KeyPaddingY),
		PaddingX:        get(KeyPaddingX),
		MaxWidth:        get(KeyMaxWidth),
		Radius:          get(KeyRadius),
		Shadow:          get(KeyShadow),
		Animation:       get(KeyAnimation),
	}
}
