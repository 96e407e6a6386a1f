package theme

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultID is the theme applied to new documents.
const DefaultID = "light"

// Theme is one palette entry. Values are utility class names.
type Theme struct {
	ID        string `yaml:"id" json:"id"`
	Group     string `yaml:"group" json:"group"`
	Bg        string `yaml:"bg" json:"bg"`
	Text      string `yaml:"text" json:"text"`
	Border    string `yaml:"border" json:"border"`
	Accent    string `yaml:"accent" json:"accent"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Muted     string `yaml:"muted" json:"muted"`
}

// Group is a named set of theme ids, in display order.
type Group struct {
	Name     string   `json:"name"`
	ThemeIDs []string `json:"theme_ids"`
}

// Palette is an immutable lookup table of themes.
type Palette struct {
	defaultID string
	themes    map[string]Theme
	order     []string
}

// NewPalette builds a palette; defaultID must name one of the themes.
func NewPalette(defaultID string, themes ...Theme) (*Palette, error) {
	p := &Palette{defaultID: defaultID, themes: make(map[string]Theme, len(themes))}
	for _, t := range themes {
		if err := p.add(t); err != nil {
			return nil, err
		}
	}
	if _, ok := p.themes[defaultID]; !ok {
		return nil, fmt.Errorf("default theme %q not in palette", defaultID)
	}
	return p, nil
}

func (p *Palette) add(t Theme) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return errors.New("theme id required")
	}
	if t.Bg == "" || t.Text == "" {
		return fmt.Errorf("theme %s: bg and text are required", t.ID)
	}
	if _, ok := p.themes[t.ID]; !ok {
		p.order = append(p.order, t.ID)
	}
	p.themes[t.ID] = t
	return nil
}

// With returns a copy of the palette extended (or overridden) by extra themes.
func (p *Palette) With(defaultID string, extra ...Theme) (*Palette, error) {
	if defaultID == "" {
		defaultID = p.defaultID
	}
	all := make([]Theme, 0, len(p.order)+len(extra))
	for _, id := range p.order {
		all = append(all, p.themes[id])
	}
	all = append(all, extra...)
	return NewPalette(defaultID, all...)
}

// Lookup returns the theme with the given id.
func (p *Palette) Lookup(id string) (Theme, bool) {
	t, ok := p.themes[id]
	return t, ok
}

func (p *Palette) Has(id string) bool {
	_, ok := p.themes[id]
	return ok
}

// Resolve returns the named theme or the palette default when id is unknown.
func (p *Palette) Resolve(id string) Theme {
	if t, ok := p.themes[id]; ok {
		return t
	}
	return p.themes[p.defaultID]
}

func (p *Palette) DefaultID() string { return p.defaultID }

// Themes lists themes in registration order.
func (p *Palette) Themes() []Theme {
	res := make([]Theme, 0, len(p.order))
	for _, id := range p.order {
		res = append(res, p.themes[id])
	}
	return res
}

// Groups lists theme groups in first-seen order. Themes without a group land in "Custom".
func (p *Palette) Groups() []Group {
	var groups []Group
	index := map[string]int{}
	for _, id := range p.order {
		name := p.themes[id].Group
		if name == "" {
			name = "Custom"
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].ThemeIDs = append(groups[i].ThemeIDs, id)
	}
	return groups
}
