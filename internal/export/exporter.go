package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"sitebuilder/internal/layout"
	"sitebuilder/internal/metrics"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// Section outcomes recorded in the manifest.
const (
	StatusRendered    = "rendered"
	StatusPlaceholder = "placeholder"
	StatusFailed      = "failed"
)

// File is one entry of an artifact.
type File struct {
	Path string
	Body []byte
}

// ManifestEntry describes how one section was exported.
type ManifestEntry struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	SHA256 string `json:"sha256"`
}

type Manifest struct {
	Name          string          `json:"name"`
	Theme         string          `json:"theme"`
	Backend       string          `json:"backend"`
	Deterministic bool            `json:"deterministic"`
	Sections      []ManifestEntry `json:"sections"`
}

// Artifact is the exported site: files sorted by path plus the manifest they
// were built from.
type Artifact struct {
	Name     string
	Files    []File
	Manifest Manifest
}

// File returns the body stored at path.
func (a Artifact) File(path string) ([]byte, bool) {
	for _, f := range a.Files {
		if f.Path == path {
			return f.Body, true
		}
	}
	return nil, false
}

// Failures lists the sections that were replaced by an error placeholder.
func (a Artifact) Failures() []ManifestEntry {
	var out []ManifestEntry
	for _, e := range a.Manifest.Sections {
		if e.Status == StatusFailed {
			out = append(out, e)
		}
	}
	return out
}

// Exporter turns layout documents into static sites.
type Exporter struct {
	Registry *section.Registry
	Palette  *theme.Palette
	// Backend renders sections; nil means the registry's local rules.
	Backend Backend
	Metrics metrics.Recorder
	Logger  *slog.Logger
	Now     func() time.Time
}

func New(reg *section.Registry, palette *theme.Palette) *Exporter {
	return &Exporter{Registry: reg, Palette: palette, Backend: Local{Registry: reg}}
}

func (e *Exporter) backend() Backend {
	if e.Backend == nil {
		return Local{Registry: e.Registry}
	}
	return e.Backend
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Export renders doc with themeID, or with the document's own theme when
// themeID is empty. Unknown themes fall back to the palette default.
//
// A document that breaks structural invariants is rejected with a
// *layout.InvariantError. Section render failures never fail the export; the
// section is replaced by an error placeholder and reported in the manifest.
// Cancellation is checked between sections.
func (e *Exporter) Export(ctx context.Context, doc layout.Document, themeID string) (Artifact, error) {
	rec := metrics.OrNoop(e.Metrics)
	start := e.now()
	art, err := e.export(ctx, doc, themeID)
	rec.ObserveExportDuration(e.now().Sub(start))
	switch {
	case err == nil:
		rec.IncExport(metrics.OutcomeSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rec.IncExport(metrics.OutcomeCanceled)
	default:
		rec.IncExport(metrics.OutcomeFailed)
	}
	return art, err
}

func (e *Exporter) export(ctx context.Context, doc layout.Document, themeID string) (Artifact, error) {
	if err := layout.CheckInvariants(doc); err != nil {
		return Artifact{}, err
	}
	if themeID == "" {
		themeID = doc.Theme
	}
	th := e.Palette.Resolve(themeID)
	backend := e.backend()
	manifest := Manifest{
		Name:          doc.Name,
		Theme:         th.ID,
		Backend:       backend.Name(),
		Deterministic: backend.Deterministic(),
		Sections:      make([]ManifestEntry, 0, len(doc.Sections)),
	}
	page := pageView{Name: doc.Name, BodyClass: strings.TrimSpace(th.Bg + " " + th.Text)}

	for i, s := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return Artifact{}, fmt.Errorf("export canceled before section %d: %w", i, err)
		}
		style := theme.Layer(e.Registry.BaseStyleFor(s.Type), th.Style(), section.Overrides(s.Data))
		view := sectionView{
			ID:    s.ID,
			Type:  s.Type,
			Outer: style.OuterClasses(),
			Inner: style.InnerClasses(),
			CSS:   template.CSS(style.InlineCSS()),
		}
		entry := ManifestEntry{Index: i, ID: s.ID, Type: s.Type, Status: StatusRendered}
		render := backend
		if !e.Registry.Known(s.Type) {
			// unknown types always get the local placeholder, whatever the backend
			entry.Status = StatusPlaceholder
			render = Local{Registry: e.Registry}
		}

		body, err := e.renderSection(ctx, render, section.RenderInput{ID: s.ID, Type: s.Type, Data: s.Data.Clone(), Style: style})
		var out bytes.Buffer
		if err == nil {
			view.Body = template.HTML(body)
			err = pageTemplates.ExecuteTemplate(&out, "section", view)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Artifact{}, fmt.Errorf("export canceled in section %d: %w", i, ctxErr)
			}
			e.logger().Warn("section render failed", "section_id", s.ID, "type", s.Type, "error", err)
			metrics.OrNoop(e.Metrics).IncSectionRenderFailure(s.Type)
			entry.Status = StatusFailed
			entry.Error = err.Error()
			out.Reset()
			if perr := pageTemplates.ExecuteTemplate(&out, "failed", view); perr != nil {
				return Artifact{}, fmt.Errorf("render error placeholder: %w", perr)
			}
		}
		sum := sha256.Sum256(out.Bytes())
		entry.SHA256 = hex.EncodeToString(sum[:])
		manifest.Sections = append(manifest.Sections, entry)
		page.Sections = append(page.Sections, template.HTML(out.String()))
	}

	var index bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&index, "page", page); err != nil {
		return Artifact{}, fmt.Errorf("render page: %w", err)
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("encode manifest: %w", err)
	}
	files := []File{
		{Path: IndexFile, Body: index.Bytes()},
		{Path: ManifestFile, Body: append(manifestJSON, '\n')},
		{Path: StylesFile, Body: []byte(stylesheet)},
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return Artifact{Name: doc.Name, Files: files, Manifest: manifest}, nil
}

// renderSection isolates one backend call: a panic becomes an error.
func (e *Exporter) renderSection(ctx context.Context, b Backend, in section.RenderInput) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger().Debug("render panic", "section_id", in.ID, "stack", string(debug.Stack()))
			body, err = nil, fmt.Errorf("render panic: %v", r)
		}
	}()
	return b.RenderSection(ctx, in)
}
