package theme

import (
	"regexp"
	"strings"
)

// Style is the effective set of visual parameters for one rendered section.
// Class-valued fields hold utility classes; BackgroundColor and TextColor hold
// raw CSS color values.
type Style struct {
	Background      string `json:"background,omitempty"`
	Text            string `json:"text,omitempty"`
	Border          string `json:"border,omitempty"`
	Accent          string `json:"accent,omitempty"`
	Secondary       string `json:"secondary,omitempty"`
	Muted           string `json:"muted,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	PaddingY        string `json:"padding_y,omitempty"`
	PaddingX        string `json:"padding_x,omitempty"`
	MaxWidth        string `json:"max_width,omitempty"`
	Radius          string `json:"radius,omitempty"`
	Shadow          string `json:"shadow,omitempty"`
	Animation       string `json:"animation,omitempty"`
}

// Style returns the palette layer of a theme.
func (t Theme) Style() Style {
	return Style{
		Background: t.Bg,
		Text:       t.Text,
		Border:     t.Border,
		Accent:     t.Accent,
		Secondary:  t.Secondary,
		Muted:      t.Muted,
	}
}

// Layer merges styles in increasing priority. A non-empty attribute in a later
// layer replaces the same attribute of earlier layers; empty attributes never do.
func Layer(layers ...Style) Style {
	var out Style
	for _, l := range layers {
		pick(&out.Background, l.Background)
		pick(&out.Text, l.Text)
		pick(&out.Border, l.Border)
		pick(&out.Accent, l.Accent)
		pick(&out.Secondary, l.Secondary)
		pick(&out.Muted, l.Muted)
		pick(&out.BackgroundColor, l.BackgroundColor)
		pick(&out.TextColor, l.TextColor)
		pick(&out.PaddingY, l.PaddingY)
		pick(&out.PaddingX, l.PaddingX)
		pick(&out.MaxWidth, l.MaxWidth)
		pick(&out.Radius, l.Radius)
		pick(&out.Shadow, l.Shadow)
		pick(&out.Animation, l.Animation)
	}
	return out
}

func pick(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// OuterClasses are applied to the full-bleed section wrapper.
func (s Style) OuterClasses() string {
	return joinClasses(s.Background, s.Text, s.PaddingY, s.PaddingX, s.AnimationClass())
}

// InnerClasses are applied to the width-constrained content box.
func (s Style) InnerClasses() string {
	return joinClasses(s.MaxWidth, "mx-auto", s.Radius, s.Shadow)
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,32}|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\))$`)

// ValidColor reports whether v is a CSS color literal safe to inline.
func ValidColor(v string) bool {
	return colorPattern.MatchString(strings.TrimSpace(v))
}

// InlineCSS renders custom colors as a style attribute value. Values that are
// not plain color literals are dropped.
func (s Style) InlineCSS() string {
	var parts []string
	if ValidColor(s.BackgroundColor) {
		parts = append(parts, "background-color: "+s.BackgroundColor)
	}
	if ValidColor(s.TextColor) {
		parts = append(parts, "color: "+s.TextColor)
	}
	return strings.Join(parts, "; ")
}

// AnimationClass maps the entrance animation tag to its stylesheet class.
func (s Style) AnimationClass() string {
	if s.Animation == "" || s.Animation == "none" {
		return ""
	}
	return "sb-anim-" + s.Animation
}

func joinClasses(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
