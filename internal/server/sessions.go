package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"sitebuilder/internal/editor"
	"sitebuilder/internal/engine"
	"sitebuilder/internal/engine/auth"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
)

type sessionPath struct {
	SID string `path:"sid"`
}

type sessionOutput struct {
	Body SessionResponse `json:"body"`
}

var sessionErrors = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusUnprocessableEntity,
}

// withSession resolves the caller's session and runs fn against it. A rejected
// action is reported with the session left unchanged.
func withSession(ctx context.Context, sessions *editor.Manager, sid string, fn func(*editor.Session) editor.Result) (*sessionOutput, error) {
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		return nil, authErr
	}
	info, s, err := sessions.Get(sid, actorID)
	if err != nil {
		return nil, handleError(err)
	}
	applied := false
	if fn != nil {
		res := fn(s)
		if err := res.Err(); err != nil {
			return nil, handleError(err)
		}
		applied = res.Applied
	}
	return &sessionOutput{Body: sessionResponse(info, s, applied)}, nil
}

// StartSessionSweeper drops sessions idle for longer than maxIdle until ctx
// is done.
func StartSessionSweeper(ctx context.Context, sessions *editor.Manager, maxIdle time.Duration, logger *slog.Logger) {
	if sessions == nil || maxIdle <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(maxIdle); n > 0 {
					logger.Info("idle sessions dropped", "count", n)
				}
			}
		}
	}()
}

func registerSessions(api huma.API, e engine.Engine, sessions *editor.Manager) {
	huma.Register(api, huma.Operation{
		OperationID:   "open-session",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/sessions",
		Summary:       "Open an editing session over a project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*sessionOutput, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, doc, err := e.LoadDocument(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := auth.Require(p, actorID, auth.ActionWrite); err != nil {
			return nil, handleError(err)
		}
		info, s := sessions.Open(actorID, p.ID, doc)
		return &sessionOutput{Body: sessionResponse(info, s, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{sid}",
		Summary:     "Current session snapshot",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *sessionPath) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, nil)
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-section",
		Method:      http.MethodPost,
		Path:        "/sessions/{sid}/sections",
		Summary:     "Append a section with its type defaults",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID  string            `path:"sid"`
		Body AddSectionRequest `json:"body"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.AddSection(input.Body.Type)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-section",
		Method:      http.MethodDelete,
		Path:        "/sessions/{sid}/sections/{section_id}",
		Summary:     "Remove a section",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID       string `path:"sid"`
		SectionID string `path:"section_id"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.DeleteSection(input.SectionID)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "commit-section-data",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/sections/{section_id}/data",
		Summary:     "Replace a section's data bag",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID       string             `path:"sid"`
		SectionID string             `path:"section_id"`
		Body      SectionDataRequest `json:"body"`
	}) (*sessionOutput, error) {
		data := section.Data(input.Body.Data)
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			if input.Body.Strict {
				return s.CommitImport(input.SectionID, data)
			}
			return s.CommitEdit(input.SectionID, data)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "resize-cards",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/sections/{section_id}/cards",
		Summary:     "Resize a cards section, keeping its lists aligned",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID       string       `path:"sid"`
		SectionID string       `path:"section_id"`
		Body      CardsRequest `json:"body"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.ResizeCards(input.SectionID, input.Body.Count)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-section",
		Method:      http.MethodPost,
		Path:        "/sessions/{sid}/move",
		Summary:     "Reorder sections",
		Description: "Send moved_id and target_id to commit a drag, or from and to for an index move.",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID  string      `path:"sid"`
		Body MoveRequest `json:"body"`
	}) (*sessionOutput, error) {
		b := input.Body
		byIndex := b.From != nil || b.To != nil
		if byIndex && (b.From == nil || b.To == nil) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "from and to are both required", nil)
		}
		if !byIndex && (b.MovedID == "" || b.TargetID == "") {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "moved_id and target_id are required", nil)
		}
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			if byIndex {
				return s.MoveSection(*b.From, *b.To)
			}
			return s.CommitMove(editor.MoveDescriptor{MovedID: b.MovedID, TargetID: b.TargetID})
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "switch-theme",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/theme",
		Summary:     "Switch the document theme",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID  string       `path:"sid"`
		Body ThemeRequest `json:"body"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.SwitchTheme(input.Body.Theme)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-selection",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/selection",
		Summary:     "Select a section, or clear the selection with an empty id",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID  string           `path:"sid"`
		Body SelectionRequest `json:"body"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			if input.Body.SectionID == "" {
				return s.ClearSelection()
			}
			return s.Select(input.Body.SectionID)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-document",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/name",
		Summary:     "Rename the document",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID  string        `path:"sid"`
		Body RenameRequest `json:"body"`
	}) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.Rename(input.Body.Name)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-document",
		Method:      http.MethodPut,
		Path:        "/sessions/{sid}/document",
		Summary:     "Replace the whole session document",
		Description: "The import is undoable. With strict=true every section must be of a registered type and satisfy its schema.",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *struct {
		SID    string          `path:"sid"`
		Strict bool            `query:"strict"`
		Body   DocumentRequest `json:"body"`
	}) (*sessionOutput, error) {
		raw, err := input.Body.raw()
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		var doc layout.Document
		if input.Strict {
			doc, err = layout.DecodeStrict(raw, e.Registry)
		} else {
			doc, err = layout.Decode(raw)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return withSession(ctx, sessions, input.SID, func(s *editor.Session) editor.Result {
			return s.Replace(doc)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "undo",
		Method:      http.MethodPost,
		Path:        "/sessions/{sid}/undo",
		Summary:     "Undo the last content change",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *sessionPath) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, (*editor.Session).Undo)
	})

	huma.Register(api, huma.Operation{
		OperationID: "redo",
		Method:      http.MethodPost,
		Path:        "/sessions/{sid}/redo",
		Summary:     "Redo the last undone change",
		Errors:      sessionErrors,
	}, func(ctx context.Context, input *sessionPath) (*sessionOutput, error) {
		return withSession(ctx, sessions, input.SID, (*editor.Session).Redo)
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{sid}/save",
		Summary:     "Persist the session document to its project",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *sessionPath) (*sessionOutput, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		info, s, err := sessions.Get(input.SID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		rev := s.Revision()
		if _, err := e.SaveDocument(ctx, info.ProjectID, actorID, s.Current()); err != nil {
			return nil, handleError(err)
		}
		s.MarkSaved(rev)
		return &sessionOutput{Body: sessionResponse(info, s, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/sessions/{sid}",
		Summary:       "Discard a session without saving",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *sessionPath) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := sessions.Close(input.SID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
