package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

func TestManagerScopesSessionsToOwner(t *testing.T) {
	rec := newTestRecorder()
	c := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(section.Builtin(), theme.Builtin(), Options{Now: c.now, Metrics: rec})

	info, s := m.Open("alice", "p1", layout.New("Landing"))
	require.NotEmpty(t, info.ID)
	require.Equal(t, 1, rec.open)
	mustApply(t, s.AddSection(section.TypeHero))

	_, got, err := m.Get(info.ID, "alice")
	require.NoError(t, err)
	require.Same(t, s, got)
	require.Len(t, got.Current().Sections, 1)

	_, _, err = m.Get(info.ID, "mallory")
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, m.Close(info.ID, "mallory"), ErrSessionNotFound)

	require.NoError(t, m.Close(info.ID, "alice"))
	require.Equal(t, 0, m.Len())
	require.Equal(t, 0, rec.open)
	_, _, err = m.Get(info.ID, "alice")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerListAndCloseProject(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(section.Builtin(), theme.Builtin(), Options{Now: c.now})
	first, _ := m.Open("alice", "p1", layout.New(""))
	second, _ := m.Open("alice", "p2", layout.New(""))
	m.Open("bob", "p1", layout.New(""))

	list := m.List("alice")
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	require.Equal(t, 2, m.CloseProject("p1"))
	require.Equal(t, 1, m.Len())
}

func TestManagerSweep(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(section.Builtin(), theme.Builtin(), Options{Now: c.now})
	stale, _ := m.Open("alice", "p1", layout.New(""))
	c.mu.Lock()
	c.t = c.t.Add(time.Hour)
	c.mu.Unlock()
	fresh, _ := m.Open("alice", "p2", layout.New(""))

	require.Equal(t, 1, m.Sweep(30*time.Minute))
	_, _, err := m.Get(stale.ID, "alice")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = m.Get(fresh.ID, "alice")
	require.NoError(t, err)
}
