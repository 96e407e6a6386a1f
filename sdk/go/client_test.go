package sitebuildersdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientSendsCredentialsAndDecodes(t *testing.T) {
	var gotPath, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBody, _ = body["type"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"s1","project_id":"p1","applied":true,"document":{"name":"Site","theme":"light","layout":[{"id":"hero-1","type":"hero","data":{}}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.APIKey = "sb_key"
	sess, err := c.AddSection(context.Background(), "s1", "hero")
	require.NoError(t, err)
	require.Equal(t, "/v0/sessions/s1/sections", gotPath)
	require.Equal(t, "sb_key", gotKey)
	require.Equal(t, "hero", gotBody)
	require.True(t, sess.Applied)
	require.Len(t, sess.Document.Layout, 1)
	require.Equal(t, "hero", sess.Document.Layout[0].Type)
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"forbidden","message":"forbidden"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetProject(context.Background(), "p1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "forbidden", apiErr.Code)
}

func TestExportArchiveReturnsRawBytes(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	data, err := New(srv.URL).ExportArchive(context.Background(), "p1", "dark")
	require.NoError(t, err)
	require.Equal(t, []byte("PK\x03\x04"), data)
	require.Equal(t, "format=zip&theme=dark", gotQuery)
}

func TestImportDocumentStrict(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	var got Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotQuery = r.Method, r.URL.Path, r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"s1","applied":true,"document":{"name":"Imported","theme":"light","layout":[{"id":"nav-1","type":"navbar","data":{}}]},"selected":{"id":"nav-1","type":"navbar","data":{}}}`))
	}))
	defer srv.Close()

	doc := Document{Name: "Imported", Theme: "light", Layout: []Section{{ID: "nav-1", Type: "navbar", Data: map[string]any{}}}}
	sess, err := New(srv.URL).ImportDocument(context.Background(), "s1", doc, true)
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/v0/sessions/s1/document", gotPath)
	require.Equal(t, "strict=true", gotQuery)
	require.Equal(t, "Imported", got.Name)
	require.NotNil(t, sess.Selected)
	require.Equal(t, "nav-1", sess.Selected.ID)
}
