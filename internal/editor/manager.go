package editor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/layout"
	"sitebuilder/internal/metrics"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// Info identifies an open session.
type Info struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProjectID string    `json:"project_id"`
	OpenedAt  time.Time `json:"opened_at"`
	TouchedAt time.Time `json:"touched_at"`
}

type entry struct {
	info    Info
	session *Session
}

// Manager holds editor sessions in memory, keyed by a random id and scoped to
// the actor that opened them.
type Manager struct {
	mu       sync.Mutex
	reg      *section.Registry
	palette  *theme.Palette
	opts     Options
	sessions map[string]*entry
}

func NewManager(reg *section.Registry, palette *theme.Palette, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Metrics = metrics.OrNoop(opts.Metrics)
	return &Manager{reg: reg, palette: palette, opts: opts, sessions: map[string]*entry{}}
}

func (m *Manager) Registry() *section.Registry { return m.reg }

func (m *Manager) Palette() *theme.Palette { return m.palette }

// Open starts a session over doc for ownerID editing projectID.
func (m *Manager) Open(ownerID, projectID string, doc layout.Document) (Info, *Session) {
	now := m.opts.Now().UTC()
	info := Info{ID: uuid.NewString(), OwnerID: ownerID, ProjectID: projectID, OpenedAt: now, TouchedAt: now}
	s := NewSession(doc, m.reg, m.palette, m.opts)

	m.mu.Lock()
	m.sessions[info.ID] = &entry{info: info, session: s}
	n := len(m.sessions)
	m.mu.Unlock()

	m.opts.Metrics.SetOpenSessions(n)
	return info, s
}

// Get returns the session id held by ownerID. Sessions of other actors are
// reported as missing.
func (m *Manager) Get(id, ownerID string) (Info, *Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.info.OwnerID != ownerID {
		return Info{}, nil, ErrSessionNotFound
	}
	e.info.TouchedAt = m.opts.Now().UTC()
	return e.info, e.session, nil
}

// Close drops the session without saving.
func (m *Manager) Close(id, ownerID string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.info.OwnerID != ownerID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	m.opts.Metrics.SetOpenSessions(n)
	return nil
}

// CloseProject drops every session over projectID, returning how many.
func (m *Manager) CloseProject(projectID string) int {
	m.mu.Lock()
	closed := 0
	for id, e := range m.sessions {
		if e.info.ProjectID == projectID {
			delete(m.sessions, id)
			closed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if closed > 0 {
		m.opts.Metrics.SetOpenSessions(n)
	}
	return closed
}

// Sweep drops sessions untouched for longer than maxIdle.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.opts.Now().UTC().Add(-maxIdle)
	m.mu.Lock()
	dropped := 0
	for id, e := range m.sessions {
		if e.info.TouchedAt.Before(cutoff) {
			delete(m.sessions, id)
			dropped++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if dropped > 0 {
		m.opts.Metrics.SetOpenSessions(n)
	}
	return dropped
}

// List returns the sessions held by ownerID, oldest first.
func (m *Manager) List(ownerID string) []Info {
	m.mu.Lock()
	out := []Info{}
	for _, e := range m.sessions {
		if e.info.OwnerID == ownerID {
			out = append(out, e.info)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
