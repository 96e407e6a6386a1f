package section

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/theme"
)

func TestBuiltinTypes(t *testing.T) {
	r := Builtin()
	types := r.Types()
	require.Len(t, types, 18)
	require.Equal(t, TypeNavbar, types[0].Type)
	require.Equal(t, TypeFooter, types[len(types)-1].Type)
	require.Equal(t, "Navbar", types[0].Label)

	rich, ok := r.Lookup(TypeRichText)
	require.True(t, ok)
	require.Equal(t, "Rich Text", rich.Label)
	require.False(t, r.Known("carousel"))
}

func TestDefaultDataIsIndependent(t *testing.T) {
	r := Builtin()
	first := r.DefaultDataFor(TypeNavbar)
	links, ok := first["links"].([]any)
	require.True(t, ok)
	links[0] = "Changed"
	first["logo"] = "X"

	second := r.DefaultDataFor(TypeNavbar)
	require.Equal(t, "DESIGNER", second["logo"])
	got, _ := second.Strings("links")
	require.Equal(t, []string{"Home", "Features", "Pricing"}, got)
	require.Equal(t, "py-8", second[KeyPaddingY])
	require.Equal(t, "px-12", second[KeyPaddingX])

	plans := r.DefaultDataFor(TypePricing)
	recs, _ := plans.Records("plans")
	recs[0]["name"] = "Mutated"
	again, _ := r.DefaultDataFor(TypePricing).Records("plans")
	require.Equal(t, "Base", again[0]["name"])
}

func TestUnknownTypeGetsCommonFields(t *testing.T) {
	r := Builtin()
	d := r.DefaultDataFor("carousel")
	require.Equal(t, commonDefaults(), d)
	require.Len(t, r.SchemaFor("carousel").Fields, len(commonFields))
	require.Empty(t, r.Validate("carousel", d))
}

func TestBuiltinDefaultsAreWellFormed(t *testing.T) {
	r := Builtin()
	for _, desc := range r.Types() {
		t.Run(desc.Type, func(t *testing.T) {
			require.Empty(t, r.Validate(desc.Type, r.DefaultDataFor(desc.Type)))
		})
	}
}

func TestValidateReportsOffendingKeys(t *testing.T) {
	r := Builtin()

	hero := r.DefaultDataFor(TypeHero)
	delete(hero, "heading")
	hero["align"] = "diagonal"
	hero["button"] = 42
	require.Equal(t, []string{"align", "button", "heading"}, r.Validate(TypeHero, hero))

	pricing := r.DefaultDataFor(TypePricing)
	plans, _ := pricing.Records("plans")
	delete(plans[1], "price")
	plans[0]["features"] = "not a list"
	require.Equal(t, []string{"plans[0].features", "plans[1].price"}, r.Validate(TypePricing, pricing))

	image := r.DefaultDataFor(TypeImage)
	image["height"] = 12.5
	require.Equal(t, []string{"height"}, r.Validate(TypeImage, image))
	image["height"] = float64(300)
	require.Empty(t, r.Validate(TypeImage, image))
}

func TestCardsListsMustMatchCount(t *testing.T) {
	r := Builtin()
	cards := r.DefaultDataFor(TypeCards)
	cards["count"] = 4
	require.Equal(t, []string{"count", "descriptions", "imageUrls", "titles"}, r.Validate(TypeCards, cards))

	resized := ResizeCards(cards, 4)
	require.Empty(t, r.Validate(TypeCards, resized))
	titles, _ := resized.Strings("titles")
	require.Equal(t, []string{"Card Title", "Card Title", "Card Title", "Title 4"}, titles)

	shrunk := ResizeCards(resized, 0)
	n, _ := shrunk.Int("count")
	require.Equal(t, 1, n)
	require.Empty(t, r.Validate(TypeCards, shrunk))
}

func TestJSONSchemaAcceptsDefaults(t *testing.T) {
	r := Builtin()
	for _, desc := range r.Types() {
		raw, err := json.Marshal(r.SchemaFor(desc.Type).JSONSchema())
		require.NoError(t, err)
		url := "https://sitebuilder.local/schema/" + desc.Type + ".json"
		compiler := jsonschema.NewCompiler()
		require.NoError(t, compiler.AddResource(url, bytes.NewReader(raw)))
		schema, err := compiler.Compile(url)
		require.NoError(t, err)

		var instance any
		data, err := json.Marshal(r.DefaultDataFor(desc.Type))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &instance))
		require.NoError(t, schema.Validate(instance), desc.Type)
	}
}

func TestRenderDefaults(t *testing.T) {
	r := Builtin()
	style := theme.Builtin().Resolve("light").Style()
	for _, desc := range r.Types() {
		var buf bytes.Buffer
		err := r.RenderRuleFor(desc.Type)(&buf, RenderInput{ID: desc.Type + "-1", Type: desc.Type, Data: r.DefaultDataFor(desc.Type), Style: style})
		require.NoError(t, err, desc.Type)
		if desc.Type != TypeDivider {
			require.NotEmpty(t, strings.TrimSpace(buf.String()), desc.Type)
		}
	}
}

func TestRenderEscapesAndFormats(t *testing.T) {
	r := Builtin()
	hero := r.DefaultDataFor(TypeHero)
	hero["heading"] = "<script>alert(1)</script>"
	var buf bytes.Buffer
	require.NoError(t, r.RenderRuleFor(TypeHero)(&buf, RenderInput{Type: TypeHero, Data: hero}))
	require.NotContains(t, buf.String(), "<script>")
	require.Contains(t, buf.String(), "&lt;script&gt;")

	rich := r.DefaultDataFor(TypeRichText)
	rich["body"] = "Hello **world**"
	buf.Reset()
	require.NoError(t, r.RenderRuleFor(TypeRichText)(&buf, RenderInput{Type: TypeRichText, Data: rich}))
	require.Contains(t, buf.String(), "<strong>world</strong>")
}

func TestRenderFailsOnMalformedData(t *testing.T) {
	r := Builtin()
	cards := r.DefaultDataFor(TypeCards)
	cards["count"] = 5
	var buf bytes.Buffer
	require.Error(t, r.RenderRuleFor(TypeCards)(&buf, RenderInput{Type: TypeCards, Data: cards}))
	require.Zero(t, buf.Len())

	require.Error(t, r.RenderRuleFor(TypeHero)(&buf, RenderInput{Type: TypeHero, Data: Data{}}))
}

func TestPlaceholderForUnknownType(t *testing.T) {
	r := Builtin()
	var buf bytes.Buffer
	require.NoError(t, r.RenderRuleFor("carousel")(&buf, RenderInput{Type: "carousel", Data: r.DefaultDataFor("carousel")}))
	require.Contains(t, buf.String(), "Unsupported section: carousel")
}

func TestStyleLayers(t *testing.T) {
	r := Builtin()
	base := r.BaseStyleFor(TypeHero)
	require.Equal(t, "py-40", base.PaddingY)
	require.Equal(t, "max-w-6xl", base.MaxWidth)

	over := Overrides(Data{KeyCustomBg: "#000", KeyPaddingY: "py-8", KeyRadius: 3})
	require.Equal(t, "#000", over.BackgroundColor)
	require.Equal(t, "py-8", over.PaddingY)
	require.Empty(t, over.Radius)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Descriptor{Type: "a"}, Descriptor{Type: "a"})
	require.Error(t, err)
	_, err = NewRegistry(Descriptor{Type: " "})
	require.Error(t, err)
}
