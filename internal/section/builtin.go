package section

import "fmt"

// Known type tags.
const (
	TypeNavbar       = "navbar"
	TypeHero         = "hero"
	TypeRichText     = "richtext"
	TypeText         = "text"
	TypeImage        = "image"
	TypeCards        = "cards"
	TypeTestimonials = "testimonials"
	TypePricing      = "pricing"
	TypeContact      = "contact"
	TypeLogoGrid     = "logogrid"
	TypeVideo        = "video"
	TypeButtons      = "buttons"
	TypeFeatures     = "features"
	TypeStats        = "stats"
	TypeCTA          = "cta"
	TypeFAQ          = "faq"
	TypeDivider      = "divider"
	TypeFooter       = "footer"
)

// Common presentational keys carried by every section.
const (
	KeyPaddingY   = "py"
	KeyPaddingX   = "px"
	KeyMaxWidth   = "maxWidth"
	KeyRadius     = "radius"
	KeyShadow     = "shadow"
	KeyCustomBg   = "customBg"
	KeyCustomText = "customText"
	KeyAnimation  = "animation"
)

var (
	PaddingYOptions  = []string{"py-0", "py-4", "py-8", "py-12", "py-16", "py-20", "py-24", "py-32", "py-40", "py-60"}
	PaddingXOptions  = []string{"px-0", "px-4", "px-8", "px-12", "px-20", "px-32"}
	MaxWidthOptions  = []string{"max-w-4xl", "max-w-5xl", "max-w-6xl", "max-w-7xl", "max-w-full"}
	RadiusOptions    = []string{"rounded-none", "rounded-lg", "rounded-2xl", "rounded-3xl", "rounded-[40px]", "rounded-full"}
	ShadowOptions    = []string{"shadow-none", "shadow-sm", "shadow-md", "shadow-lg", "shadow-xl", "shadow-2xl"}
	AnimationOptions = []string{"none", "fadeUp", "fadeDown", "fadeIn", "scaleUp", "slideLeft", "slideRight"}
	AlignOptions     = []string{"left", "center", "right"}
	FontSizeOptions  = []string{"xs", "sm", "base", "lg", "xl", "2xl", "3xl"}
)

var commonFields = []Field{
	{Key: KeyPaddingY, Kind: KindEnum, Label: "Vertical padding", Options: PaddingYOptions, Common: true},
	{Key: KeyPaddingX, Kind: KindEnum, Label: "Horizontal padding", Options: PaddingXOptions, Common: true},
	{Key: KeyMaxWidth, Kind: KindEnum, Label: "Max width", Options: MaxWidthOptions, Common: true},
	{Key: KeyRadius, Kind: KindEnum, Label: "Corner radius", Options: RadiusOptions, Common: true},
	{Key: KeyShadow, Kind: KindEnum, Label: "Shadow", Options: ShadowOptions, Common: true},
	{Key: KeyCustomBg, Kind: KindString, Label: "Background color (CSS)", Common: true},
	{Key: KeyCustomText, Kind: KindString, Label: "Text color (CSS)", Common: true},
	{Key: KeyAnimation, Kind: KindEnum, Label: "Entrance animation", Options: AnimationOptions, Common: true},
}

func commonDefaults() Data {
	return Data{
		KeyPaddingY:   "py-24",
		KeyPaddingX:   "px-12",
		KeyRadius:     "rounded-none",
		KeyShadow:     "shadow-none",
		KeyCustomBg:   "",
		KeyCustomText: "",
		KeyMaxWidth:   "max-w-6xl",
	}
}

const (
	cardImageURL        = "https://images.unsplash.com/photo-1498050108023-c5249f4df085?auto=format&fit=crop&w=400&q=80"
	cardPlaceholderURL  = "https://via.placeholder.com/400x300"
	avatarURL           = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?auto=format&fit=facearea&facepad=2&w=100&h=100&q=80"
	logoPlaceholderURL  = "https://via.placeholder.com/120x60/eeeeee/999999?text=LOGO"
	videoDefaultEmbed   = "https://www.youtube.com/embed/dQw4w9WgXcQ"
	richTextDefaultBody = "Start telling your story here. This component supports multiple lines of text and custom headings."
)

func str(key, label string, required bool) Field {
	return Field{Key: key, Kind: KindString, Label: label, Required: required}
}

func enum(key, label string, opts []string) Field {
	return Field{Key: key, Kind: KindEnum, Label: label, Required: true, Options: opts}
}

func repeat(s string, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Type: TypeNavbar,
			Defaults: Data{
				"logo":   "DESIGNER",
				"links":  []any{"Home", "Features", "Pricing"},
				"align":  "right",
				"sticky": false,
				"py":     "py-8",
			},
			Fields: []Field{
				str("logo", "Logo text", true),
				{Key: "links", Kind: KindStringList, Label: "Links", Required: true},
				enum("align", "Link alignment", AlignOptions),
				{Key: "sticky", Kind: KindBool, Label: "Sticky"},
			},
			Render: renderTemplate("navbar"),
		},
		{
			Type: TypeHero,
			Defaults: Data{
				"heading":    "Design something amazing",
				"subheading": "Your vision, powered by AI components.",
				"button":     "Get Started",
				"align":      "center",
				"py":         "py-40",
			},
			Fields: []Field{
				str("heading", "Heading", true),
				str("subheading", "Subheading", true),
				str("button", "Button label", true),
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("hero"),
		},
		{
			Type:  TypeRichText,
			Label: "Rich Text",
			Defaults: Data{
				"heading": "Our Story",
				"body":    richTextDefaultBody,
				"align":   "left",
			},
			Fields: []Field{
				str("heading", "Heading", true),
				str("body", "Body (Markdown)", true),
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("richtext"),
		},
		{
			Type: TypeText,
			Defaults: Data{
				"content":  "This is a text block.",
				"fontSize": "base",
				"align":    "left",
				"py":       "py-8",
			},
			Fields: []Field{
				str("content", "Content", true),
				enum("fontSize", "Font size", FontSizeOptions),
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("text"),
		},
		{
			Type: TypeImage,
			Defaults: Data{
				"url":       "",
				"height":    400,
				"caption":   "Beautiful Image",
				"fullWidth": false,
			},
			Fields: []Field{
				str("url", "Image URL", true),
				{Key: "height", Kind: KindInteger, Label: "Height (px)", Required: true},
				str("caption", "Caption", false),
				{Key: "fullWidth", Kind: KindBool, Label: "Full width"},
			},
			Render: renderTemplate("image"),
		},
		{
			Type: TypeCards,
			Defaults: Data{
				"count":        3,
				"titles":       repeat("Card Title", 3),
				"descriptions": repeat("Card description text goes here.", 3),
				"imageUrls":    repeat(cardImageURL, 3),
			},
			Fields: []Field{
				{Key: "count", Kind: KindInteger, Label: "Number of cards", Required: true},
				{Key: "titles", Kind: KindStringList, Label: "Titles", Required: true},
				{Key: "descriptions", Kind: KindStringList, Label: "Descriptions", Required: true},
				{Key: "imageUrls", Kind: KindStringList, Label: "Image URLs", Required: true},
			},
			Check:  checkCards,
			Render: renderTemplate("cards"),
		},
		{
			Type: TypeTestimonials,
			Defaults: Data{
				"items": []any{
					map[string]any{"name": "Alex Rivera", "role": "Founder", "quote": "This builder is game changing!", "imageUrl": avatarURL},
				},
			},
			Fields: []Field{
				{Key: "items", Kind: KindRecordList, Label: "Testimonials", Required: true, Fields: []Field{
					str("name", "Name", true),
					str("role", "Role", false),
					str("quote", "Quote", true),
					str("imageUrl", "Avatar URL", false),
				}},
			},
			Render: renderTemplate("testimonials"),
		},
		{
			Type: TypePricing,
			Defaults: Data{
				"plans": []any{
					map[string]any{"name": "Base", "price": "$0", "features": []any{"Feature 1"}, "highlighted": false},
					map[string]any{"name": "Pro", "price": "$29", "features": []any{"All Features", "Support"}, "highlighted": true},
				},
			},
			Fields: []Field{
				{Key: "plans", Kind: KindRecordList, Label: "Plans", Required: true, Fields: []Field{
					str("name", "Name", true),
					str("price", "Price", true),
					{Key: "features", Kind: KindStringList, Label: "Features", Required: true},
					{Key: "highlighted", Kind: KindBool, Label: "Highlighted"},
				}},
			},
			Render: renderTemplate("pricing"),
		},
		{
			Type: TypeContact,
			Defaults: Data{
				"heading": "Contact Us",
				"email":   "hi@example.com",
				"phone":   "+1 234 567 890",
				"address": "123 Studio St",
			},
			Fields: []Field{
				str("heading", "Heading", true),
				str("email", "Email", true),
				str("phone", "Phone", false),
				str("address", "Address", false),
			},
			Render: renderTemplate("contact"),
		},
		{
			Type:  TypeLogoGrid,
			Label: "Logo Grid",
			Defaults: Data{
				"logos":   repeat(logoPlaceholderURL, 4),
				"columns": 4,
			},
			Fields: []Field{
				{Key: "logos", Kind: KindStringList, Label: "Logo URLs", Required: true},
				{Key: "columns", Kind: KindInteger, Label: "Columns", Required: true},
			},
			Render: renderTemplate("logogrid"),
		},
		{
			Type: TypeVideo,
			Defaults: Data{
				"heading":  "Product Demo",
				"videoUrl": videoDefaultEmbed,
			},
			Fields: []Field{
				str("heading", "Heading", false),
				str("videoUrl", "Embed URL", true),
			},
			Render: renderTemplate("video"),
		},
		{
			Type: TypeButtons,
			Defaults: Data{
				"buttons": []any{map[string]any{"label": "Action 1"}, map[string]any{"label": "Action 2"}},
				"align":   "center",
				"py":      "py-12",
			},
			Fields: []Field{
				{Key: "buttons", Kind: KindRecordList, Label: "Buttons", Required: true, Fields: []Field{
					str("label", "Label", true),
					str("url", "Link", false),
				}},
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("buttons"),
		},
		{
			Type: TypeFeatures,
			Defaults: Data{
				"items":   []any{map[string]any{"title": "Power", "description": "AI generated code"}},
				"columns": 3,
			},
			Fields: []Field{
				{Key: "items", Kind: KindRecordList, Label: "Features", Required: true, Fields: []Field{
					str("title", "Title", true),
					str("description", "Description", true),
				}},
				{Key: "columns", Kind: KindInteger, Label: "Columns", Required: true},
			},
			Render: renderTemplate("features"),
		},
		{
			Type: TypeStats,
			Defaults: Data{
				"stats":  []any{map[string]any{"label": "Users", "value": "1M+"}},
				"layout": "horizontal",
				"py":     "py-16",
			},
			Fields: []Field{
				{Key: "stats", Kind: KindRecordList, Label: "Stats", Required: true, Fields: []Field{
					str("label", "Label", true),
					str("value", "Value", true),
				}},
				enum("layout", "Layout", []string{"horizontal", "vertical"}),
			},
			Render: renderTemplate("stats"),
		},
		{
			Type:  TypeCTA,
			Label: "Call To Action",
			Defaults: Data{
				"heading":        "Ready?",
				"supportingText": "Join us today.",
				"button":         "Sign Up",
				"align":          "center",
			},
			Fields: []Field{
				str("heading", "Heading", true),
				str("supportingText", "Supporting text", false),
				str("button", "Button label", true),
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("cta"),
		},
		{
			Type:  TypeFAQ,
			Label: "FAQ",
			Defaults: Data{
				"items": []any{map[string]any{"question": "Is it fast?", "answer": "Yes, incredibly."}},
			},
			Fields: []Field{
				{Key: "items", Kind: KindRecordList, Label: "Questions", Required: true, Fields: []Field{
					str("question", "Question", true),
					str("answer", "Answer", true),
				}},
			},
			Render: renderTemplate("faq"),
		},
		{
			Type: TypeDivider,
			Defaults: Data{
				"height":   "md",
				"showLine": true,
				"py":       "py-0",
			},
			Fields: []Field{
				enum("height", "Spacing", []string{"sm", "md", "lg"}),
				{Key: "showLine", Kind: KindBool, Label: "Show line"},
			},
			Render: renderTemplate("divider"),
		},
		{
			Type: TypeFooter,
			Defaults: Data{
				"text":  "© 2025 UI Designer. All rights reserved.",
				"align": "center",
				"py":    "py-12",
			},
			Fields: []Field{
				str("text", "Text", true),
				enum("align", "Alignment", AlignOptions),
			},
			Render: renderTemplate("footer"),
		},
	}
}

// Builtin returns the registry of stock section types.
func Builtin() *Registry {
	r, err := NewRegistry(builtinDescriptors()...)
	if err != nil {
		panic(err)
	}
	return r
}

func checkCards(d Data) []string {
	count, _ := d.Int("count")
	var bad []string
	if count < 1 {
		bad = append(bad, "count")
	}
	for _, key := range []string{"titles", "descriptions", "imageUrls"} {
		list, _ := d.Strings(key)
		if len(list) != count {
			bad = append(bad, "count", key)
		}
	}
	return bad
}

// ResizeCards returns a copy of a cards bag resized to n cards (minimum 1),
// keeping the parallel lists consistent. Existing entries are kept; new slots
// get numbered placeholder content.
func ResizeCards(d Data, n int) Data {
	if n < 1 {
		n = 1
	}
	out := d.Clone()
	fill := func(key string, placeholder func(i int) string) {
		cur, _ := d.Strings(key)
		list := make([]any, n)
		for i := range list {
			if i < len(cur) && cur[i] != "" {
				list[i] = cur[i]
			} else {
				list[i] = placeholder(i)
			}
		}
		out[key] = list
	}
	fill("titles", func(i int) string { return fmt.Sprintf("Title %d", i+1) })
	fill("descriptions", func(i int) string { return fmt.Sprintf("Description %d", i+1) })
	fill("imageUrls", func(int) string { return cardPlaceholderURL })
	out["count"] = n
	return out
}
