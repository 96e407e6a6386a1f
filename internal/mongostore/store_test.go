package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/events"
	"sitebuilder/internal/repo"
)

func TestDocConversion(t *testing.T) {
	p := domain.Project{
		ID:         "p1",
		OwnerID:    "alice",
		Name:       "Site",
		Theme:      "light",
		IsPublic:   true,
		LayoutJSON: `{"name":"Site","theme":"light","layout":[]}`,
		CreatedAt:  "2024-01-01T00:00:00Z",
		UpdatedAt:  "2024-01-02T00:00:00Z",
	}
	require.Equal(t, p, toDoc(p).project())

	evt := toEventDoc(events.Event{Type: events.ProjectSaved, ProjectID: "p1", ActorID: "alice"})
	require.NotEmpty(t, evt.TS)
	require.Equal(t, "p1", evt.ProjectID)
}

// newLiveStore connects to SITEBUILDER_TEST_MONGO_URI or skips.
func newLiveStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("SITEBUILDER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SITEBUILDER_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s, err := Connect(ctx, uri, "sitebuilder_test_"+uuid.NewString()[:8], nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestLiveStore(t *testing.T) {
	s := newLiveStore(t)
	ctx := context.Background()
	p := domain.Project{ID: "p1", OwnerID: "alice", Name: "One", Theme: "light", LayoutJSON: "{}", CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z"}
	evt := events.Event{Type: events.ProjectCreated, ProjectID: "p1", EntityKind: "project", ActorID: "alice"}
	require.NoError(t, s.InsertProject(ctx, p, evt))

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	require.NoError(t, s.SetVisibility(ctx, "p1", true, "2024-01-03T00:00:00Z", evt))
	got, err = s.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.True(t, got.IsPublic)

	list, err := s.ListProjectsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteProject(ctx, "p1", evt))
	_, err = s.GetProject(ctx, "p1")
	require.True(t, errors.Is(err, repo.ErrNotFound))
	require.ErrorIs(t, s.DeleteProject(ctx, "p1", evt), repo.ErrNotFound)

	history, err := s.LatestEvents(ctx, 10, "p1")
	require.NoError(t, err)
	require.Len(t, history, 3)
}
