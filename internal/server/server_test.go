package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"sitebuilder/internal/config"
	"sitebuilder/internal/db"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/engine"
	"sitebuilder/internal/events"
	"sitebuilder/internal/migrate"
	"sitebuilder/internal/repo"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	Repo   repo.Repo
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repo.NewStore(conn)
	e := engine.New(store, section.Builtin(), theme.Builtin())
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Events:   store.Repo,
		Auth: AuthConfig{
			JWTSecret:              testSecret,
			DevLogin:               true,
			AllowLegacyActorHeader: true,
			Keys:                   store.Repo,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		Repo:   store.Repo,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func as(actor string) map[string]string {
	if actor == "" {
		return nil
	}
	return map[string]string{"X-Actor-Id": actor}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func expectStatus(t *testing.T, res *http.Response, data []byte, want int) {
	t.Helper()
	if res.StatusCode != want {
		t.Fatalf("%s %s: status %d want %d: %s", res.Request.Method, res.Request.URL.Path, res.StatusCode, want, string(data))
	}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, string(data))
	}
	return env.Error.Code
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, string(data))
	}
	return out
}

func layoutIDs(doc DocumentResponse) []string {
	out := make([]string, len(doc.Layout))
	for i, s := range doc.Layout {
		out[i] = s.ID
	}
	return out
}

func layoutTypes(doc DocumentResponse) []string {
	out := make([]string, len(doc.Layout))
	for i, s := range doc.Layout {
		out[i] = s.Type
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHealthAndCatalog(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	expectStatus(t, res, data, http.StatusOK)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/section-types", nil, nil)
	expectStatus(t, res, data, http.StatusOK)
	types := decode[[]SectionTypeResponse](t, data)
	if len(types) != len(section.Builtin().Types()) {
		t.Fatalf("got %d section types", len(types))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/section-types/hero/schema", nil, nil)
	expectStatus(t, res, data, http.StatusOK)
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/section-types/carousel/schema", nil, nil)
	expectStatus(t, res, data, http.StatusNotFound)
	if code := errorCode(t, data); code != "unknown_section_type" {
		t.Fatalf("code %s", code)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/themes", nil, nil)
	expectStatus(t, res, data, http.StatusOK)
	themes := decode[ThemesResponse](t, data)
	if themes.Default != theme.DefaultID || len(themes.Themes) == 0 || len(themes.Groups) == 0 {
		t.Fatalf("unexpected themes %+v", themes)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/openapi.json", nil, nil)
	expectStatus(t, res, data, http.StatusOK)
}

func TestOpenAPIConcurrentFirstRequest(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	start := make(chan struct{})
	bodies := make(chan []byte, 16)
	errs := make(chan error, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := client.Get(srv.URL + "/v0/openapi.json")
			if err != nil {
				errs <- err
				return
			}
			defer res.Body.Close()
			data, err := io.ReadAll(res.Body)
			if err != nil {
				errs <- err
				return
			}
			bodies <- data
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	close(bodies)
	for err := range errs {
		t.Fatalf("get openapi: %v", err)
	}
	var first []byte
	for data := range bodies {
		if first == nil {
			first = data
		}
		if !bytes.Equal(first, data) || len(data) == 0 {
			t.Fatalf("openapi documents differ between concurrent requests")
		}
	}
}

func TestProjectAccessControl(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "Nope"}, nil)
	expectStatus(t, res, data, http.StatusUnauthorized)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "Alice Site"}, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	p := decode[ProjectResponse](t, data)
	projectURL := srv.URL + "/v0/projects/" + p.ID

	res, data = doJSON(t, client, http.MethodGet, projectURL, nil, as("bob"))
	expectStatus(t, res, data, http.StatusForbidden)
	if code := errorCode(t, data); code != "forbidden" {
		t.Fatalf("code %s", code)
	}
	res, data = doJSON(t, client, http.MethodGet, projectURL, nil, nil)
	expectStatus(t, res, data, http.StatusForbidden)

	res, data = doJSON(t, client, http.MethodPatch, projectURL+"/visibility", map[string]any{"is_public": true}, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	if !decode[ProjectResponse](t, data).IsPublic {
		t.Fatalf("project not public: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, projectURL, nil, nil)
	expectStatus(t, res, data, http.StatusOK)
	loaded := decode[ProjectDocumentResponse](t, data)
	if loaded.Document.Name != "Alice Site" {
		t.Fatalf("unexpected document %+v", loaded.Document)
	}

	res, data = doJSON(t, client, http.MethodPut, projectURL, map[string]any{"name": "Hijack", "layout": []any{}}, as("bob"))
	expectStatus(t, res, data, http.StatusForbidden)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/missing", nil, as("alice"))
	expectStatus(t, res, data, http.StatusNotFound)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	if list := decode[[]ProjectResponse](t, data); len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	res, data = doJSON(t, client, http.MethodDelete, projectURL, nil, as("bob"))
	expectStatus(t, res, data, http.StatusForbidden)
	res, data = doJSON(t, client, http.MethodDelete, projectURL, nil, as("alice"))
	expectStatus(t, res, data, http.StatusNoContent)
	res, data = doJSON(t, client, http.MethodGet, projectURL, nil, as("alice"))
	expectStatus(t, res, data, http.StatusNotFound)
}

func TestSaveDocumentValidation(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "Site"}, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	projectURL := srv.URL + "/v0/projects/" + decode[ProjectResponse](t, data).ID

	doc := map[string]any{
		"name":  "Site",
		"theme": "midnight",
		"layout": []any{
			map[string]any{"id": "navbar-1", "type": "navbar", "data": map[string]any{"logo": "ACME"}},
			map[string]any{"id": "hero-1", "type": "hero", "data": map[string]any{"heading": "Hi"}},
		},
	}
	res, data = doJSON(t, client, http.MethodPut, projectURL, doc, as("alice"))
	expectStatus(t, res, data, http.StatusOK)

	res, data = doJSON(t, client, http.MethodGet, projectURL, nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	loaded := decode[ProjectDocumentResponse](t, data)
	if !equalStrings(layoutIDs(loaded.Document), []string{"navbar-1", "hero-1"}) || loaded.Document.Theme != "midnight" {
		t.Fatalf("unexpected document %+v", loaded.Document)
	}

	dup := map[string]any{
		"layout": []any{
			map[string]any{"id": "a", "type": "hero", "data": map[string]any{}},
			map[string]any{"id": "a", "type": "hero", "data": map[string]any{}},
		},
	}
	res, data = doJSON(t, client, http.MethodPut, projectURL, dup, as("alice"))
	expectStatus(t, res, data, http.StatusBadRequest)
	if code := errorCode(t, data); code != "malformed_document" {
		t.Fatalf("code %s", code)
	}
}

func TestEditingSession(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "Launch"}, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	p := decode[ProjectResponse](t, data)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/sessions", nil, as("bob"))
	expectStatus(t, res, data, http.StatusForbidden)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/sessions", nil, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	sess := decode[SessionResponse](t, data)
	base := srv.URL + "/v0/sessions/" + sess.ID

	for _, typ := range []string{"hero", "footer", "navbar"} {
		res, data = doJSON(t, client, http.MethodPost, base+"/sections", map[string]any{"type": typ}, as("alice"))
		expectStatus(t, res, data, http.StatusOK)
		sess = decode[SessionResponse](t, data)
		if !sess.Applied {
			t.Fatalf("add %s not applied", typ)
		}
	}
	if !equalStrings(layoutTypes(sess.Document), []string{"hero", "footer", "navbar"}) {
		t.Fatalf("unexpected order %v", layoutTypes(sess.Document))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/move", map[string]any{"from": 2, "to": 0}, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if !equalStrings(layoutTypes(sess.Document), []string{"navbar", "hero", "footer"}) {
		t.Fatalf("unexpected order after index move %v", layoutTypes(sess.Document))
	}
	ids := layoutIDs(sess.Document)
	heroID, footerID := ids[1], ids[2]

	res, data = doJSON(t, client, http.MethodPost, base+"/move", map[string]any{"moved_id": footerID, "target_id": heroID}, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if !equalStrings(layoutTypes(sess.Document), []string{"navbar", "footer", "hero"}) {
		t.Fatalf("unexpected order after drag %v", layoutTypes(sess.Document))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/move", map[string]any{"from": 0, "to": 9}, as("alice"))
	expectStatus(t, res, data, http.StatusBadRequest)
	if code := errorCode(t, data); code != "index_out_of_range" {
		t.Fatalf("code %s", code)
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/sections/"+heroID+"/data", map[string]any{"data": map[string]any{"heading": "Launch Day"}, "strict": true}, as("alice"))
	expectStatus(t, res, data, http.StatusUnprocessableEntity)
	if code := errorCode(t, data); code != "schema_violation" {
		t.Fatalf("code %s", code)
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/selection", map[string]any{"section_id": heroID}, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	if decode[SessionResponse](t, data).Document.SelectedID != heroID {
		t.Fatalf("hero not selected: %s", string(data))
	}
	res, data = doJSON(t, client, http.MethodDelete, base+"/sections/"+heroID, nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if sess.Document.SelectedID != "" || len(sess.Document.Layout) != 2 {
		t.Fatalf("delete selected left %+v", sess.Document)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/undo", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if len(sess.Document.Layout) != 3 || !sess.CanRedo {
		t.Fatalf("undo did not restore: %+v", sess)
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/theme", map[string]any{"theme": "nope"}, as("alice"))
	expectStatus(t, res, data, http.StatusBadRequest)
	if code := errorCode(t, data); code != "unknown_theme" {
		t.Fatalf("code %s", code)
	}

	res, data = doJSON(t, client, http.MethodGet, base, nil, as("bob"))
	expectStatus(t, res, data, http.StatusNotFound)

	res, data = doJSON(t, client, http.MethodPost, base+"/save", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	if decode[SessionResponse](t, data).Dirty {
		t.Fatalf("session dirty after save")
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/"+p.ID, nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	stored := decode[ProjectDocumentResponse](t, data)
	if !equalStrings(layoutTypes(stored.Document), []string{"navbar", "footer", "hero"}) {
		t.Fatalf("stored order %v", layoutTypes(stored.Document))
	}

	res, data = doJSON(t, client, http.MethodDelete, base, nil, as("alice"))
	expectStatus(t, res, data, http.StatusNoContent)
	res, data = doJSON(t, client, http.MethodGet, base, nil, as("alice"))
	expectStatus(t, res, data, http.StatusNotFound)
}

func TestSessionImportDocument(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "Imports"}, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	p := decode[ProjectResponse](t, data)
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+p.ID+"/sessions", nil, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	sess := decode[SessionResponse](t, data)
	base := srv.URL + "/v0/sessions/" + sess.ID

	res, data = doJSON(t, client, http.MethodPost, base+"/sections", map[string]any{"type": "hero"}, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if sess.Selected == nil || sess.Selected.Type != "hero" || sess.Selected.ID != sess.Document.SelectedID {
		t.Fatalf("selected section not reported: %+v", sess.Selected)
	}

	imported := map[string]any{
		"name":  "Imported",
		"theme": "midnight",
		"layout": []map[string]any{
			{"id": "nav-1", "type": "navbar", "data": map[string]any{}},
			{"id": "widget-1", "type": "carousel", "data": map[string]any{}},
		},
	}
	res, data = doJSON(t, client, http.MethodPut, base+"/document?strict=true", imported, as("alice"))
	expectStatus(t, res, data, http.StatusBadRequest)
	if code := errorCode(t, data); code != "unknown_section_type" {
		t.Fatalf("code %s", code)
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/document", imported, as("bob"))
	expectStatus(t, res, data, http.StatusNotFound)

	res, data = doJSON(t, client, http.MethodPut, base+"/document", imported, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if !sess.Applied || sess.Document.Name != "Imported" || sess.Document.Theme != "midnight" {
		t.Fatalf("import not applied: %+v", sess.Document)
	}
	if !equalStrings(layoutIDs(sess.Document), []string{"nav-1", "widget-1"}) {
		t.Fatalf("unexpected ids %v", layoutIDs(sess.Document))
	}
	if sess.Selected != nil || sess.Document.SelectedID != "" {
		t.Fatalf("import kept a selection")
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/undo", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	sess = decode[SessionResponse](t, data)
	if !equalStrings(layoutTypes(sess.Document), []string{"hero"}) {
		t.Fatalf("undo did not restore the document: %v", layoutTypes(sess.Document))
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{"name": "My Launch Site"}, as("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	p := decode[ProjectResponse](t, data)
	exportURL := srv.URL + "/v0/projects/" + p.ID + "/export"

	res, data = doJSON(t, client, http.MethodPost, exportURL+"?format=json", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	out := decode[ExportResponse](t, data)
	if out.ArchiveName != "my-launch-site.zip" || len(out.Files) != 3 {
		t.Fatalf("unexpected export %+v", out)
	}

	res, data = doJSON(t, client, http.MethodPost, exportURL+"?theme=midnight", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	if ct := res.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type %s", ct)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Fatalf("not a zip archive")
	}

	res, data = doJSON(t, client, http.MethodPost, exportURL, nil, nil)
	expectStatus(t, res, data, http.StatusForbidden)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/"+p.ID+"/events", nil, as("alice"))
	expectStatus(t, res, data, http.StatusOK)
	evts := decode[[]EventResponse](t, data)
	if len(evts) != 3 || evts[0].Type != events.ProjectExported {
		t.Fatalf("unexpected events %+v", evts)
	}
}

func TestDevLoginAndAPIKeys(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, nil)
	expectStatus(t, res, data, http.StatusUnauthorized)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{"actor_id": "carol"}, nil)
	expectStatus(t, res, data, http.StatusOK)
	login := decode[DevLoginResponse](t, data)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	expectStatus(t, res, data, http.StatusOK)
	if who := decode[WhoAmIResponse](t, data); who.ActorID != "carol" || who.Source != "jwt" {
		t.Fatalf("unexpected principal %+v", who)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{"Authorization": "Bearer nope"})
	expectStatus(t, res, data, http.StatusUnauthorized)

	key, err := repo.GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	err = srv.Repo.InsertAPIKey(context.Background(), domain.APIKey{ID: "k1", ActorID: "dave", KeyHash: repo.HashAPIKey(key)})
	if err != nil {
		t.Fatalf("insert key: %v", err)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{"X-Api-Key": key})
	expectStatus(t, res, data, http.StatusOK)
	if who := decode[WhoAmIResponse](t, data); who.ActorID != "dave" || who.Source != "api_key" {
		t.Fatalf("unexpected principal %+v", who)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{"X-Api-Key": "sb_wrong"})
	expectStatus(t, res, data, http.StatusUnauthorized)
}

func TestWebhookDelivery(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	var mu sync.Mutex
	var got []string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("X-Sitebuilder-Signature") != signPayload("s3cret", body) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		got = append(got, r.Header.Get("X-Sitebuilder-Event"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	ctx := context.Background()
	// events stored before the dispatcher starts are not replayed
	if _, err := srv.Engine.CreateProject(ctx, "alice", "Before"); err != nil {
		t.Fatalf("create: %v", err)
	}
	d := newWebhookDispatcher(srv.Repo, []config.WebhookConfig{{
		URL:    hook.URL,
		Secret: "s3cret",
		Events: []string{events.ProjectSaved},
	}}, nil)
	d.dispatchAll(ctx)

	p, err := srv.Engine.CreateProject(ctx, "alice", "After")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, doc, err := srv.Engine.LoadDocument(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := srv.Engine.SaveDocument(ctx, p.ID, "alice", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	d.dispatchAll(ctx)

	mu.Lock()
	defer mu.Unlock()
	if !equalStrings(got, []string{events.ProjectSaved}) {
		t.Fatalf("delivered %v", got)
	}
}
