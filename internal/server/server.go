package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/engine"
	"sitebuilder/internal/engine/auth"
	"sitebuilder/internal/export"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/metrics"
	"sitebuilder/internal/repo"
)

// EventLog lists stored events of one project, newest first.
type EventLog interface {
	LatestEvents(ctx context.Context, limit int, projectID string) ([]domain.Event, error)
}

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Sessions *editor.Manager
	BasePath string
	Auth     AuthConfig
	// Events enables GET /projects/{id}/events.
	Events EventLog
	// Metrics enables GET /metrics.
	Metrics *prom.Registry
	Logger  *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"section_not_found"`
	Message string         `json:"message" example:"section not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"keys\":[\"heading\"]}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the sitebuilder API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine.Store == nil {
		return nil, errors.New("engine store required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Sessions == nil {
		cfg.Sessions = editor.NewManager(cfg.Engine.Registry, cfg.Engine.Palette, editor.Options{})
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// request validation is a client error, not a schema violation
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newRequestLogger(cfg.Logger))
	router.Use(newAuthMiddleware(cfg.Auth))
	hcfg := huma.DefaultConfig("Sitebuilder API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	if cfg.Metrics != nil {
		router.Handle("/metrics", metrics.HTTPHandler(cfg.Metrics))
	}
	registerHealth(group)
	registerMe(group)
	if cfg.Auth.DevLogin {
		registerDevAuth(group, cfg.Engine, cfg.Auth)
	}
	registerCatalog(group, cfg.Engine)
	registerProjects(group, cfg.Engine, cfg.Sessions)
	registerExport(group, cfg.Engine)
	registerSessions(group, cfg.Engine, cfg.Sessions)
	if cfg.Events != nil {
		registerEvents(group, cfg.Engine, cfg.Events)
	}
	registerOpenAPI(router, api, basePath, cfg.Auth.DevLogin)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var failure *editor.Failure
	if errors.As(err, &failure) {
		return failureError(failure)
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"action": fe.Action})
	}
	var sv *layout.SchemaViolationError
	if errors.As(err, &sv) {
		return newAPIError(http.StatusUnprocessableEntity, "schema_violation", err.Error(), map[string]any{"keys": sv.Keys, "section_id": sv.SectionID})
	}
	var ie *layout.InvariantError
	if errors.As(err, &ie) {
		return newAPIError(http.StatusInternalServerError, "invariant_violation", err.Error(), map[string]any{"violations": ie.Violations})
	}
	switch {
	case errors.Is(err, engine.ErrUnauthenticated):
		return newAPIError(http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case errors.Is(err, engine.ErrForbidden):
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, editor.ErrSessionNotFound):
		return newAPIError(http.StatusNotFound, "session_not_found", err.Error(), nil)
	case errors.Is(err, layout.ErrSectionNotFound):
		return newAPIError(http.StatusNotFound, "section_not_found", err.Error(), nil)
	case errors.Is(err, layout.ErrMalformedDocument):
		return newAPIError(http.StatusBadRequest, "malformed_document", err.Error(), nil)
	case errors.Is(err, layout.ErrUnknownSectionType):
		return newAPIError(http.StatusBadRequest, "unknown_section_type", err.Error(), nil)
	case errors.Is(err, layout.ErrIndexOutOfRange):
		return newAPIError(http.StatusBadRequest, "index_out_of_range", err.Error(), nil)
	case errors.Is(err, editor.ErrUnknownTheme):
		return newAPIError(http.StatusBadRequest, "unknown_theme", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "timeout", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

// failureError maps a rejected editor action onto the error envelope.
func failureError(f *editor.Failure) huma.StatusError {
	status := http.StatusBadRequest
	switch f.Code {
	case editor.CodeSectionNotFound:
		status = http.StatusNotFound
	case editor.CodeSchemaViolation:
		status = http.StatusUnprocessableEntity
	case editor.CodeInvariant:
		status = http.StatusInternalServerError
	}
	var details map[string]any
	if len(f.Keys) > 0 {
		details = map[string]any{"keys": f.Keys}
	}
	return newAPIError(status, string(f.Code), f.Message, details)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "schema_violation"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string, devLogin bool) {
	var (
		once sync.Once
		spec []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath, devLogin)
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

// applyAuthSecurity declares bearer and API key auth. Catalog and health
// routes are open; the rest accept anonymous callers only on public projects.
func applyAuthSecurity(oas *huma.OpenAPI, basePath string, devLogin bool) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		path.Join(basePath, "health"):                       true,
		path.Join(basePath, "themes"):                       true,
		path.Join(basePath, "section-types"):                true,
		path.Join(basePath, "section-types/{type}/schema"):  true,
	}
	if devLogin {
		open[path.Join(basePath, "auth/dev/login")] = true
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Sitebuilder API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key. Public projects are readable without credentials.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoAmIResponse `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		principal, _ := principalFromContext(ctx)
		return &struct {
			Body WhoAmIResponse `json:"body"`
		}{Body: WhoAmIResponse{ActorID: principal.ActorID, Source: principal.Source}}, nil
	})
}

func registerDevAuth(api huma.API, e engine.Engine, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		now := time.Now()
		if e.Now != nil {
			now = e.Now()
		}
		token, exp, err := signDevToken(authCfg.JWTSecret, actor, now, authCfg.tokenTTL())
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		authCfg.logger().Warn("dev token issued", "actor_id", actor)
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token, ExpiresAt: exp.Format(time.RFC3339)}}, nil
	})
}

func registerCatalog(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-section-types",
		Method:      http.MethodGet,
		Path:        "/section-types",
		Summary:     "List section types in palette order",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []SectionTypeResponse `json:"body"`
	}, error) {
		descs := e.Registry.Types()
		out := make([]SectionTypeResponse, 0, len(descs))
		for _, d := range descs {
			out = append(out, sectionTypeResponse(d))
		}
		return &struct {
			Body []SectionTypeResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-section-schema",
		Method:      http.MethodGet,
		Path:        "/section-types/{type}/schema",
		Summary:     "JSON Schema of a section type's data",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Type string `path:"type"`
	}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		if !e.Registry.Known(input.Type) {
			return nil, newAPIError(http.StatusNotFound, "unknown_section_type", "unknown section type: "+input.Type, nil)
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: e.Registry.SchemaFor(input.Type).JSONSchema()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-themes",
		Method:      http.MethodGet,
		Path:        "/themes",
		Summary:     "List themes and their groups",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ThemesResponse `json:"body"`
	}, error) {
		return &struct {
			Body ThemesResponse `json:"body"`
		}{Body: ThemesResponse{
			Default: e.Palette.DefaultID(),
			Themes:  e.Palette.Themes(),
			Groups:  e.Palette.Groups(),
		}}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine, sessions *editor.Manager) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, actorID, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List the caller's projects, most recently updated first",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListProjects(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Load a project document",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ProjectDocumentResponse `json:"body"`
	}, error) {
		p, doc, err := e.LoadDocument(ctx, input.ID, optionalActorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectDocumentResponse `json:"body"`
		}{Body: ProjectDocumentResponse{Project: projectResponse(p), Document: documentResponse(doc)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-project",
		Method:      http.MethodPut,
		Path:        "/projects/{id}",
		Summary:     "Replace a project document",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string          `path:"id"`
		Body DocumentRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		raw, err := input.Body.raw()
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		doc, err := layout.Decode(raw)
		if err != nil {
			return nil, handleError(err)
		}
		p, err := e.SaveDocument(ctx, input.ID, actorID, doc)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}",
		Summary:       "Delete a project",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteProject(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		sessions.CloseProject(input.ID)
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-project-visibility",
		Method:      http.MethodPatch,
		Path:        "/projects/{id}/visibility",
		Summary:     "Publish or unpublish a project",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body VisibilityRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.SetVisibility(ctx, input.ID, actorID, input.Body.IsPublic)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})
}

func registerExport(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "export-project",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/export",
		Summary:     "Export a project as a static site",
		Description: "format=zip returns the archive; format=json returns the files inline with the manifest.",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID     string `path:"id"`
		Theme  string `query:"theme"`
		Format string `query:"format" enum:"zip,json" default:"zip"`
	}) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		art, err := e.ExportProject(ctx, input.ID, optionalActorID(ctx), input.Theme)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{}
		if input.Format == "json" {
			data, err := json.Marshal(exportResponse(art))
			if err != nil {
				return nil, handleError(err)
			}
			out.ContentType = "application/json"
			out.Body = data
			return out, nil
		}
		data, err := export.Archive(art)
		if err != nil {
			return nil, handleError(err)
		}
		out.ContentType = "application/zip"
		out.ContentDisposition = fmt.Sprintf("attachment; filename=%q", export.ArchiveName(art.Name))
		out.Body = data
		return out, nil
	})
}

func registerEvents(api huma.API, e engine.Engine, log EventLog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/events",
		Summary:     "List recent project events",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.GetProject(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := auth.Require(p, actorID, auth.ActionWrite); err != nil {
			return nil, handleError(err)
		}
		items, err := log.LatestEvents(ctx, input.Limit, p.ID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(items))
		for _, evt := range items {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// newRequestLogger logs one line per request at debug level, and server
// errors at error level.
func newRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			level := slog.LevelDebug
			if rec.status >= 500 {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}
