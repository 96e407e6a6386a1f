package server

import (
	"encoding/json"
	"time"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/export"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// Request payloads

type CreateProjectRequest struct {
	Name string `json:"name,omitempty" maxLength:"200"`
}

type VisibilityRequest struct {
	IsPublic bool `json:"is_public"`
}

type SectionPayload struct {
	ID   string         `json:"id" minLength:"1"`
	Type string         `json:"type" minLength:"1"`
	Data map[string]any `json:"data"`
}

// DocumentRequest is the persisted document shape.
type DocumentRequest struct {
	Name   string           `json:"name,omitempty"`
	Theme  string           `json:"theme,omitempty"`
	Layout []SectionPayload `json:"layout"`
}

type AddSectionRequest struct {
	Type string `json:"type" minLength:"1" example:"hero"`
}

type SectionDataRequest struct {
	Data map[string]any `json:"data"`
	// Strict validates data against the section schema before applying it.
	Strict bool `json:"strict,omitempty"`
}

type CardsRequest struct {
	Count int `json:"count" minimum:"0"`
}

type MoveRequest struct {
	MovedID  string `json:"moved_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	From     *int   `json:"from,omitempty"`
	To       *int   `json:"to,omitempty"`
}

type ThemeRequest struct {
	Theme string `json:"theme" minLength:"1" example:"midnight"`
}

type SelectionRequest struct {
	SectionID string `json:"section_id,omitempty"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id" minLength:"1"`
}

// Responses

type ProjectResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Theme     string `json:"theme"`
	IsPublic  bool   `json:"is_public"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type SectionResponse struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type DocumentResponse struct {
	Name       string            `json:"name"`
	Theme      string            `json:"theme"`
	Layout     []SectionResponse `json:"layout"`
	SelectedID string            `json:"selected_section_id,omitempty"`
}

type ProjectDocumentResponse struct {
	Project  ProjectResponse  `json:"project"`
	Document DocumentResponse `json:"document"`
}

type SessionResponse struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	OpenedAt  time.Time        `json:"opened_at"`
	Revision  int64            `json:"revision"`
	Dirty     bool             `json:"dirty"`
	CanUndo   bool             `json:"can_undo"`
	CanRedo   bool             `json:"can_redo"`
	Applied   bool             `json:"applied"`
	Document  DocumentResponse `json:"document"`
	// Selected is the section the inspector is editing, if any.
	Selected *SectionResponse `json:"selected,omitempty"`
}

type SectionTypeResponse struct {
	Type     string         `json:"type"`
	Label    string         `json:"label"`
	Defaults map[string]any `json:"defaults"`
}

type ThemesResponse struct {
	Default string        `json:"default"`
	Themes  []theme.Theme `json:"themes"`
	Groups  []theme.Group `json:"groups"`
}

type ExportFileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type ExportResponse struct {
	ArchiveName string              `json:"archive_name"`
	Manifest    export.Manifest     `json:"manifest"`
	Files       []ExportFileResponse `json:"files"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Source  string `json:"source"`
}

type DevLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at" format:"date-time"`
}

// Conversion helpers

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Theme:     p.Theme,
		IsPublic:  p.IsPublic,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectResponse(p))
	}
	return out
}

func documentResponse(doc layout.Document) DocumentResponse {
	res := DocumentResponse{
		Name:       doc.Name,
		Theme:      doc.Theme,
		Layout:     make([]SectionResponse, 0, len(doc.Sections)),
		SelectedID: doc.SelectedID,
	}
	for _, s := range doc.Sections {
		res.Layout = append(res.Layout, SectionResponse{ID: s.ID, Type: s.Type, Data: s.Data.Clone()})
	}
	return res
}

// raw re-encodes the request so it goes through the same decoder as stored
// documents.
func (r DocumentRequest) raw() ([]byte, error) {
	if r.Layout == nil {
		r.Layout = []SectionPayload{}
	}
	return json.Marshal(r)
}

func sessionResponse(info editor.Info, s *editor.Session, applied bool) SessionResponse {
	doc := s.Current()
	res := SessionResponse{
		ID:        info.ID,
		ProjectID: info.ProjectID,
		OpenedAt:  info.OpenedAt,
		Revision:  s.Revision(),
		Dirty:     s.Dirty(),
		CanUndo:   s.CanUndo(),
		CanRedo:   s.CanRedo(),
		Applied:   applied,
		Document:  documentResponse(doc),
	}
	if sel, ok := doc.Selected(); ok {
		res.Selected = &SectionResponse{ID: sel.ID, Type: sel.Type, Data: sel.Data.Clone()}
	}
	return res
}

func sectionTypeResponse(d section.Descriptor) SectionTypeResponse {
	return SectionTypeResponse{Type: d.Type, Label: d.Label, Defaults: d.Defaults.Clone()}
}

func exportResponse(a export.Artifact) ExportResponse {
	res := ExportResponse{
		ArchiveName: export.ArchiveName(a.Name),
		Manifest:    a.Manifest,
		Files:       make([]ExportFileResponse, 0, len(a.Files)),
	}
	for _, f := range a.Files {
		res.Files = append(res.Files, ExportFileResponse{Path: f.Path, Content: string(f.Body)})
	}
	return res
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"raw": raw}
	}
	return out
}
