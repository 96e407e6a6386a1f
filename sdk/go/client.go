package sitebuildersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Sitebuilder HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Project is the stored project record.
type Project struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Theme     string `json:"theme"`
	IsPublic  bool   `json:"is_public"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Section is one typed block of a layout.
type Section struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Document is a layout document as served by the API.
type Document struct {
	Name       string    `json:"name"`
	Theme      string    `json:"theme"`
	Layout     []Section `json:"layout"`
	SelectedID string    `json:"selected_section_id,omitempty"`
}

// ProjectDocument pairs a project with its current document.
type ProjectDocument struct {
	Project  Project  `json:"project"`
	Document Document `json:"document"`
}

// Session is an editing session snapshot.
type Session struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	OpenedAt  string   `json:"opened_at"`
	Revision  int64    `json:"revision"`
	Dirty     bool     `json:"dirty"`
	CanUndo   bool     `json:"can_undo"`
	CanRedo   bool     `json:"can_redo"`
	Applied   bool     `json:"applied"`
	Document  Document `json:"document"`
	Selected  *Section `json:"selected,omitempty"`
}

// SectionType describes one entry of the section palette.
type SectionType struct {
	Type     string         `json:"type"`
	Label    string         `json:"label"`
	Defaults map[string]any `json:"defaults"`
}

// ExportFile is one file of an exported site.
type ExportFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Export is the inline form of an exported site.
type Export struct {
	ArchiveName string         `json:"archive_name"`
	Manifest    map[string]any `json:"manifest"`
	Files       []ExportFile   `json:"files"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s body=%s", e.StatusCode, e.Code, e.Body)
}

// CreateProject creates an empty project owned by the caller.
func (c *Client) CreateProject(ctx context.Context, name string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", map[string]any{"name": name}, &resp)
	return resp, err
}

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp, err
}

// GetProject loads a project and its document.
func (c *Client) GetProject(ctx context.Context, projectID string) (ProjectDocument, error) {
	var resp ProjectDocument
	err := c.do(ctx, http.MethodGet, projectPath(projectID, ""), nil, &resp)
	return resp, err
}

// SaveDocument replaces a project's document.
func (c *Client) SaveDocument(ctx context.Context, projectID string, doc Document) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPut, projectPath(projectID, ""), doc, &resp)
	return resp, err
}

// SetVisibility publishes or unpublishes a project.
func (c *Client) SetVisibility(ctx context.Context, projectID string, public bool) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPatch, projectPath(projectID, "visibility"), map[string]any{"is_public": public}, &resp)
	return resp, err
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, ""), nil, nil)
}

// Export renders a project and returns its files inline. An empty themeID
// keeps the document theme.
func (c *Client) Export(ctx context.Context, projectID, themeID string) (Export, error) {
	var resp Export
	err := c.do(ctx, http.MethodPost, exportPath(projectID, themeID, "json"), nil, &resp)
	return resp, err
}

// ExportArchive renders a project and returns the zip archive bytes.
func (c *Client) ExportArchive(ctx context.Context, projectID, themeID string) ([]byte, error) {
	var buf bytes.Buffer
	err := c.do(ctx, http.MethodPost, exportPath(projectID, themeID, "zip"), nil, &buf)
	return buf.Bytes(), err
}

// Events returns recent events of a project. Owner only.
func (c *Client) Events(ctx context.Context, projectID string, limit int) ([]Event, error) {
	endpoint := projectPath(projectID, "events")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SectionTypes lists the section palette.
func (c *Client) SectionTypes(ctx context.Context) ([]SectionType, error) {
	var resp []SectionType
	err := c.do(ctx, http.MethodGet, "section-types", nil, &resp)
	return resp, err
}

// OpenSession starts an editing session over a project the caller owns.
func (c *Client) OpenSession(ctx context.Context, projectID string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, projectPath(projectID, "sessions"), nil, &resp)
	return resp, err
}

// AddSection appends a section of the given type.
func (c *Client) AddSection(ctx context.Context, sessionID, sectionType string) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "sections", map[string]any{"type": sectionType})
}

// DeleteSection removes a section.
func (c *Client) DeleteSection(ctx context.Context, sessionID, sectionID string) (Session, error) {
	return c.session(ctx, http.MethodDelete, sessionID, "sections/"+url.PathEscape(sectionID), nil)
}

// CommitData replaces a section's data bag. Strict data must satisfy the
// section type's schema.
func (c *Client) CommitData(ctx context.Context, sessionID, sectionID string, data map[string]any, strict bool) (Session, error) {
	return c.session(ctx, http.MethodPut, sessionID, "sections/"+url.PathEscape(sectionID)+"/data", map[string]any{"data": data, "strict": strict})
}

// ResizeCards sets the card count of a cards section.
func (c *Client) ResizeCards(ctx context.Context, sessionID, sectionID string, count int) (Session, error) {
	return c.session(ctx, http.MethodPut, sessionID, "sections/"+url.PathEscape(sectionID)+"/cards", map[string]any{"count": count})
}

// MoveSection moves the section at from to index to.
func (c *Client) MoveSection(ctx context.Context, sessionID string, from, to int) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "move", map[string]any{"from": from, "to": to})
}

// CommitMove drops the moved section onto the target section's slot.
func (c *Client) CommitMove(ctx context.Context, sessionID, movedID, targetID string) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "move", map[string]any{"moved_id": movedID, "target_id": targetID})
}

// SwitchTheme changes the document theme.
func (c *Client) SwitchTheme(ctx context.Context, sessionID, themeID string) (Session, error) {
	return c.session(ctx, http.MethodPut, sessionID, "theme", map[string]any{"theme": themeID})
}

// Select marks a section as selected; an empty id clears the selection.
func (c *Client) Select(ctx context.Context, sessionID, sectionID string) (Session, error) {
	return c.session(ctx, http.MethodPut, sessionID, "selection", map[string]any{"section_id": sectionID})
}

// ImportDocument replaces the whole session document. Strict imports must use
// registered types with schema-valid data.
func (c *Client) ImportDocument(ctx context.Context, sessionID string, doc Document, strict bool) (Session, error) {
	sub := "document"
	if strict {
		sub += "?strict=true"
	}
	return c.session(ctx, http.MethodPut, sessionID, sub, doc)
}

func (c *Client) Undo(ctx context.Context, sessionID string) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "undo", nil)
}

func (c *Client) Redo(ctx context.Context, sessionID string) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "redo", nil)
}

// Save persists the session document to its project.
func (c *Client) Save(ctx context.Context, sessionID string) (Session, error) {
	return c.session(ctx, http.MethodPost, sessionID, "save", nil)
}

// CloseSession discards a session without saving.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "sessions/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) session(ctx context.Context, method, sessionID, sub string, body any) (Session, error) {
	var resp Session
	endpoint := "sessions/" + url.PathEscape(sessionID) + "/" + sub
	err := c.do(ctx, method, endpoint, body, &resp)
	return resp, err
}

// do sends the request and decodes the JSON response into out. A
// *bytes.Buffer out receives the raw body instead.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
		}
		return apiErr
	}
	switch dst := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		_, err := io.Copy(dst, resp.Body)
		return err
	default:
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

func projectPath(projectID, sub string) string {
	p := "projects/" + url.PathEscape(projectID)
	if sub != "" {
		p += "/" + strings.TrimLeft(sub, "/")
	}
	return p
}

func exportPath(projectID, themeID, format string) string {
	q := url.Values{}
	q.Set("format", format)
	if themeID != "" {
		q.Set("theme", themeID)
	}
	return projectPath(projectID, "export") + "?" + q.Encode()
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
