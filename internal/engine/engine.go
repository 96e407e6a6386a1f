package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/engine/auth"
	"sitebuilder/internal/events"
	"sitebuilder/internal/export"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// ErrForbidden is matched by every access denial.
var ErrForbidden = auth.ErrForbidden

// ErrUnauthenticated is returned when an operation needs a known actor.
var ErrUnauthenticated = errors.New("authentication required")

// ProjectStore persists projects. Write methods store evt together with the
// change; implementations return repo.ErrNotFound for missing ids.
type ProjectStore interface {
	InsertProject(ctx context.Context, p domain.Project, evt events.Event) error
	GetProject(ctx context.Context, id string) (domain.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	UpdateDocument(ctx context.Context, id string, u domain.DocumentUpdate, evt events.Event) error
	SetVisibility(ctx context.Context, id string, public bool, updatedAt string, evt events.Event) error
	DeleteProject(ctx context.Context, id string, evt events.Event) error
	RecordEvent(ctx context.Context, evt events.Event) error
}

type Engine struct {
	Store     ProjectStore
	Publisher events.Publisher
	Registry  *section.Registry
	Palette   *theme.Palette
	Exporter  *export.Exporter
	// Strict rejects saved documents holding unregistered or invalid sections.
	Strict bool
	Logger *slog.Logger
	Now    func() time.Time
}

func New(store ProjectStore, reg *section.Registry, palette *theme.Palette) Engine {
	return Engine{
		Store:     store,
		Publisher: events.NopPublisher{},
		Registry:  reg,
		Palette:   palette,
		Exporter:  export.New(reg, palette),
		Now:       time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) publish(ctx context.Context, evt events.Event) {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.Publish(ctx, evt); err != nil {
		e.logger().Warn("publish event failed", "type", evt.Type, "project_id", evt.ProjectID, "error", err)
	}
}

func projectEvent(typ string, p domain.Project, actorID, ts string, payload events.EventPayload) events.Event {
	if actorID == "" {
		actorID = "anonymous"
	}
	return events.Event{
		Type:       typ,
		ProjectID:  p.ID,
		EntityKind: "project",
		EntityID:   p.ID,
		ActorID:    actorID,
		TS:         ts,
		Payload:    payload,
	}
}

// CreateProject stores an empty document owned by ownerID.
func (e Engine) CreateProject(ctx context.Context, ownerID, name string) (domain.Project, error) {
	if ownerID == "" {
		return domain.Project{}, ErrUnauthenticated
	}
	doc := layout.New(strings.TrimSpace(name))
	if e.Palette != nil {
		doc = layout.SetTheme(doc, e.Palette.DefaultID())
	}
	raw, err := layout.Encode(doc)
	if err != nil {
		return domain.Project{}, fmt.Errorf("encode document: %w", err)
	}
	ts := e.stamp()
	p := domain.Project{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Name:       doc.Name,
		Theme:      doc.Theme,
		LayoutJSON: string(raw),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	evt := projectEvent(events.ProjectCreated, p, ownerID, ts, events.EventPayload{"name": p.Name})
	if err := e.Store.InsertProject(ctx, p, evt); err != nil {
		return domain.Project{}, err
	}
	e.publish(ctx, evt)
	return p, nil
}

// ListProjects returns the caller's projects, most recently updated first.
func (e Engine) ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return e.Store.ListProjectsByOwner(ctx, ownerID)
}

// GetProject returns the project record when actorID may read it.
func (e Engine) GetProject(ctx context.Context, projectID, actorID string) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := auth.Require(p, actorID, auth.ActionRead); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// LoadDocument returns the stored document. Private projects are visible to
// their owner only; the returned document has no selection.
func (e Engine) LoadDocument(ctx context.Context, projectID, actorID string) (domain.Project, layout.Document, error) {
	p, err := e.GetProject(ctx, projectID, actorID)
	if err != nil {
		return domain.Project{}, layout.Document{}, err
	}
	doc, err := layout.Decode([]byte(p.LayoutJSON))
	if err != nil {
		return domain.Project{}, layout.Document{}, fmt.Errorf("project %s: %w", p.ID, err)
	}
	return p, doc, nil
}

// SaveDocument replaces the stored document. Owner only.
func (e Engine) SaveDocument(ctx context.Context, projectID, actorID string, doc layout.Document) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := auth.Require(p, actorID, auth.ActionWrite); err != nil {
		return domain.Project{}, err
	}
	doc.SelectedID = ""
	if err := layout.CheckInvariants(doc); err != nil {
		return domain.Project{}, err
	}
	if e.Strict && e.Registry != nil {
		if err := layout.ValidateSections(doc, e.Registry); err != nil {
			return domain.Project{}, err
		}
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = layout.DefaultName
	}
	if doc.Theme == "" && e.Palette != nil {
		doc.Theme = e.Palette.DefaultID()
	}
	raw, err := layout.Encode(doc)
	if err != nil {
		return domain.Project{}, fmt.Errorf("encode document: %w", err)
	}
	u := domain.DocumentUpdate{Name: doc.Name, Theme: doc.Theme, LayoutJSON: string(raw), UpdatedAt: e.stamp()}
	evt := projectEvent(events.ProjectSaved, p, actorID, u.UpdatedAt, events.EventPayload{"sections": len(doc.Sections), "theme": doc.Theme})
	if err := e.Store.UpdateDocument(ctx, p.ID, u, evt); err != nil {
		return domain.Project{}, err
	}
	e.publish(ctx, evt)
	p.Name, p.Theme, p.LayoutJSON, p.UpdatedAt = u.Name, u.Theme, u.LayoutJSON, u.UpdatedAt
	return p, nil
}

// SetVisibility publishes or unpublishes a project. Owner only.
func (e Engine) SetVisibility(ctx context.Context, projectID, actorID string, public bool) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := auth.Require(p, actorID, auth.ActionWrite); err != nil {
		return domain.Project{}, err
	}
	ts := e.stamp()
	evt := projectEvent(events.ProjectVisibility, p, actorID, ts, events.EventPayload{"is_public": public})
	if err := e.Store.SetVisibility(ctx, p.ID, public, ts, evt); err != nil {
		return domain.Project{}, err
	}
	e.publish(ctx, evt)
	p.IsPublic = public
	p.UpdatedAt = ts
	return p, nil
}

// DeleteProject removes a project. Owner only.
func (e Engine) DeleteProject(ctx context.Context, projectID, actorID string) error {
	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := auth.Require(p, actorID, auth.ActionWrite); err != nil {
		return err
	}
	evt := projectEvent(events.ProjectDeleted, p, actorID, e.stamp(), events.EventPayload{"name": p.Name})
	if err := e.Store.DeleteProject(ctx, p.ID, evt); err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

// ExportProject renders a stored project with themeID, or its own theme when
// empty. Allowed for the owner and, on public projects, for anyone.
func (e Engine) ExportProject(ctx context.Context, projectID, actorID, themeID string) (export.Artifact, error) {
	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return export.Artifact{}, err
	}
	if err := auth.Require(p, actorID, auth.ActionExport); err != nil {
		return export.Artifact{}, err
	}
	doc, err := layout.Decode([]byte(p.LayoutJSON))
	if err != nil {
		return export.Artifact{}, fmt.Errorf("project %s: %w", p.ID, err)
	}
	art, err := e.exporter().Export(ctx, doc, themeID)
	if err != nil {
		return export.Artifact{}, err
	}
	evt := projectEvent(events.ProjectExported, p, actorID, e.stamp(), events.EventPayload{
		"theme":    art.Manifest.Theme,
		"backend":  art.Manifest.Backend,
		"failures": len(art.Failures()),
	})
	if err := e.Store.RecordEvent(ctx, evt); err != nil {
		return export.Artifact{}, fmt.Errorf("record export: %w", err)
	}
	e.publish(ctx, evt)
	return art, nil
}

func (e Engine) exporter() *export.Exporter {
	if e.Exporter != nil {
		return e.Exporter
	}
	return export.New(e.Registry, e.Palette)
}
