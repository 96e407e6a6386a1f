package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func buildDoc(t *testing.T, types ...string) layout.Document {
	t.Helper()
	reg := section.Builtin()
	now := fixedClock()
	doc := layout.New("Launch Page")
	for _, typ := range types {
		var err error
		doc, _, err = layout.CreateSection(doc, reg, typ, layout.CreateOptions{Now: now})
		require.NoError(t, err)
	}
	return doc
}

func newExporter() *Exporter {
	return New(section.Builtin(), theme.Builtin())
}

// sectionNodes returns the top-level <section> elements of an exported page.
func sectionNodes(t *testing.T, page []byte) []*html.Node {
	t.Helper()
	root, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "section" {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func TestExportIsDeterministic(t *testing.T) {
	doc := buildDoc(t, section.TypeNavbar, section.TypeHero, section.TypeCards, section.TypePricing, section.TypeFAQ, section.TypeFooter)
	e := newExporter()

	first, err := e.Export(context.Background(), doc, "")
	require.NoError(t, err)
	second, err := e.Export(context.Background(), doc.Clone(), "")
	require.NoError(t, err)
	require.Equal(t, first.Files, second.Files)
	require.True(t, first.Manifest.Deterministic)

	zipA, err := Archive(first)
	require.NoError(t, err)
	zipB, err := Archive(second)
	require.NoError(t, err)
	require.Equal(t, zipA, zipB)
}

func TestExportPackagingAndOrder(t *testing.T) {
	doc := buildDoc(t, section.TypeNavbar, section.TypeHero, section.TypeFooter)
	art, err := newExporter().Export(context.Background(), doc, "")
	require.NoError(t, err)

	var paths []string
	for _, f := range art.Files {
		paths = append(paths, f.Path)
	}
	require.Equal(t, []string{IndexFile, ManifestFile, StylesFile}, paths)

	page, ok := art.File(IndexFile)
	require.True(t, ok)
	nodes := sectionNodes(t, page)
	require.Len(t, nodes, 3)
	for i, n := range nodes {
		require.Equal(t, doc.Sections[i].ID, attr(n, "id"))
		require.Equal(t, doc.Sections[i].Type, attr(n, "data-section-type"))
	}

	raw, _ := art.File(ManifestFile)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, "Launch Page", m.Name)
	require.Equal(t, "light", m.Theme)
	require.Len(t, m.Sections, 3)
	for _, entry := range m.Sections {
		require.Equal(t, StatusRendered, entry.Status)
		require.Len(t, entry.SHA256, 64)
	}
}

func TestHeroLaunchDayScenario(t *testing.T) {
	reg := section.Builtin()
	doc := buildDoc(t, section.TypeHero)
	data := doc.Sections[0].Data.Clone()
	data["heading"] = "Launch Day"
	doc, err := layout.PatchSectionData(doc, doc.Sections[0].ID, data)
	require.NoError(t, err)
	require.Empty(t, reg.Validate(section.TypeHero, doc.Sections[0].Data))

	art, err := newExporter().Export(context.Background(), doc, "")
	require.NoError(t, err)
	page, _ := art.File(IndexFile)
	nodes := sectionNodes(t, page)
	require.Len(t, nodes, 1)
	require.Contains(t, text(nodes[0]), "Launch Day")
	require.Contains(t, attr(nodes[0], "class"), "py-40")
}

func TestUnknownTypeRendersPlaceholder(t *testing.T) {
	doc := buildDoc(t, section.TypeHero, "carousel", section.TypeFooter)
	art, err := newExporter().Export(context.Background(), doc, "")
	require.NoError(t, err)

	require.Equal(t, StatusPlaceholder, art.Manifest.Sections[1].Status)
	require.Empty(t, art.Failures())
	page, _ := art.File(IndexFile)
	nodes := sectionNodes(t, page)
	require.Len(t, nodes, 3)
	require.Contains(t, text(nodes[1]), "Unsupported section: carousel")
}

func TestRenderFailureIsContained(t *testing.T) {
	doc := buildDoc(t, section.TypeHero, section.TypeCards, section.TypeFooter)
	bad := doc.Sections[1].Data.Clone()
	bad["count"] = 9
	doc, err := layout.PatchSectionData(doc, doc.Sections[1].ID, bad)
	require.NoError(t, err)

	art, err := newExporter().Export(context.Background(), doc, "")
	require.NoError(t, err)
	failures := art.Failures()
	require.Len(t, failures, 1)
	require.Equal(t, doc.Sections[1].ID, failures[0].ID)
	require.NotEmpty(t, failures[0].Error)

	page, _ := art.File(IndexFile)
	nodes := sectionNodes(t, page)
	require.Len(t, nodes, 3)
	require.Equal(t, "true", attr(nodes[1], "data-render-error"))
	require.Equal(t, StatusRendered, art.Manifest.Sections[2].Status)
}

type panicBackend struct{ Local }

func (p panicBackend) RenderSection(ctx context.Context, in section.RenderInput) ([]byte, error) {
	if in.Type == section.TypeHero {
		panic("boom")
	}
	return p.Local.RenderSection(ctx, in)
}

func TestPanickingBackendIsContained(t *testing.T) {
	doc := buildDoc(t, section.TypeNavbar, section.TypeHero)
	e := newExporter()
	e.Backend = panicBackend{Local{Registry: e.Registry}}
	art, err := e.Export(context.Background(), doc, "")
	require.NoError(t, err)
	require.Equal(t, StatusRendered, art.Manifest.Sections[0].Status)
	require.Equal(t, StatusFailed, art.Manifest.Sections[1].Status)
	require.Contains(t, art.Manifest.Sections[1].Error, "boom")
}

type cancelingBackend struct {
	Local
	cancel context.CancelFunc
	calls  int
}

func (c *cancelingBackend) RenderSection(ctx context.Context, in section.RenderInput) ([]byte, error) {
	c.calls++
	c.cancel()
	return c.Local.RenderSection(ctx, in)
}

func TestExportStopsWhenCanceled(t *testing.T) {
	doc := buildDoc(t, section.TypeNavbar, section.TypeHero, section.TypeFooter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newExporter()
	b := &cancelingBackend{Local: Local{Registry: e.Registry}, cancel: cancel}
	e.Backend = b

	_, err := e.Export(ctx, doc, "")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, b.calls)
}

func TestExportRejectsBrokenDocument(t *testing.T) {
	doc := layout.Document{Name: "x", Sections: []layout.Section{{ID: "a", Type: "hero"}, {ID: "a", Type: "hero"}}}
	_, err := newExporter().Export(context.Background(), doc, "")
	var ie *layout.InvariantError
	require.True(t, errors.As(err, &ie))
}

func TestThemeLayering(t *testing.T) {
	doc := buildDoc(t, section.TypeHero, section.TypeFooter)
	data := doc.Sections[0].Data.Clone()
	data[section.KeyCustomBg] = "#112233"
	data[section.KeyCustomText] = "red; background: url(x)"
	data[section.KeyAnimation] = "fadeUp"
	doc, err := layout.PatchSectionData(doc, doc.Sections[0].ID, data)
	require.NoError(t, err)

	art, err := newExporter().Export(context.Background(), doc, "midnight")
	require.NoError(t, err)
	require.Equal(t, "midnight", art.Manifest.Theme)
	page, _ := art.File(IndexFile)
	nodes := sectionNodes(t, page)

	hero := nodes[0]
	require.Contains(t, attr(hero, "class"), "bg-slate-950")
	require.Contains(t, attr(hero, "class"), "sb-anim-fadeUp")
	require.Equal(t, "background-color: #112233", attr(hero, "style"))
	require.Empty(t, attr(nodes[1], "style"))

	fallback, err := newExporter().Export(context.Background(), doc, "no-such-theme")
	require.NoError(t, err)
	require.Equal(t, "light", fallback.Manifest.Theme)
}

func TestArchive(t *testing.T) {
	art, err := newExporter().Export(context.Background(), buildDoc(t, section.TypeHero), "")
	require.NoError(t, err)
	raw, err := Archive(art)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	for i, f := range zr.File {
		require.Equal(t, art.Files[i].Path, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		require.Equal(t, art.Files[i].Body, body)
	}
}

func TestArchiveName(t *testing.T) {
	require.Equal(t, "my-cool-site.zip", ArchiveName("My Cool \t\n Site"))
	require.Equal(t, "untitled-design.zip", ArchiveName("  "))
	require.Equal(t, "landing.zip", ArchiveName("Landing"))
	require.Equal(t, "etc-evil.zip", ArchiveName("../../etc/evil"))
	require.Equal(t, "a-b-c.zip", ArchiveName("a/b c"))
	require.Equal(t, "x-y.zip", ArchiveName(`..\x\y`))
	require.Equal(t, "untitled-design.zip", ArchiveName("../.."))
	require.Equal(t, "v1.2-launch.zip", ArchiveName("v1.2 Launch"))
}
