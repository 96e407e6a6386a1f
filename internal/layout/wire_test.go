package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"sitebuilder/internal/section"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := section.Builtin()
	doc := build(t, reg, section.TypeNavbar, section.TypeHero, section.TypePricing, "carousel", section.TypeFooter)
	doc = SetTheme(doc, "midnight")
	doc = Rename(doc, "Launch")

	raw, err := Encode(doc)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	require.Contains(t, wire, "layout")
	require.NotContains(t, wire, "selectedSectionId")

	back, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, doc.IDs(), back.IDs())
	require.Equal(t, "midnight", back.Theme)
	require.Equal(t, "Launch", back.Name)
	require.Empty(t, back.SelectedID)

	again, err := Encode(back)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(again))
}

func TestDecodeDefaultsAndEmptyLayout(t *testing.T) {
	doc, err := Decode([]byte(`{"layout": []}`))
	require.NoError(t, err)
	require.Equal(t, DefaultName, doc.Name)
	require.Equal(t, "light", doc.Theme)
	require.NotNil(t, doc.Sections)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"missing layout": `{"name": "x"}`,
		"empty id":      `{"layout": [{"id": "", "type": "hero", "data": {}}]}`,
		"data not object": `{"layout": [{"id": "a", "type": "hero", "data": []}]}`,
		"duplicate ids": `{"layout": [{"id": "a", "type": "hero", "data": {}}, {"id": "a", "type": "footer", "data": {}}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			require.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	reg := section.Builtin()
	doc := build(t, reg, section.TypeHero, section.TypeCards)
	raw, err := Encode(doc)
	require.NoError(t, err)
	_, err = DecodeStrict(raw, reg)
	require.NoError(t, err)

	doc.Sections[1].Data["count"] = 7
	raw, err = Encode(doc)
	require.NoError(t, err)
	_, err = DecodeStrict(raw, reg)
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)
	require.Equal(t, doc.Sections[1].ID, sv.SectionID)
	require.Contains(t, sv.Keys, "count")

	_, err = DecodeStrict([]byte(`{"layout": [{"id": "a", "type": "carousel", "data": {}}]}`), reg)
	require.ErrorIs(t, err, ErrUnknownSectionType)
}

func TestEncodeLeavesSnapshotUntouched(t *testing.T) {
	doc := New("Bare")
	doc.Sections = []Section{{ID: "hero-1", Type: section.TypeHero}}
	raw, err := Encode(doc)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"data":{}`)
	require.Nil(t, doc.Sections[0].Data)
}
