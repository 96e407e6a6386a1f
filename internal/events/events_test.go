package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestAppendEvent(t *testing.T) {
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE events(id INTEGER PRIMARY KEY AUTOINCREMENT, ts TEXT, type TEXT, project_id TEXT, entity_kind TEXT, entity_id TEXT, actor_id TEXT, payload_json TEXT)`)
	require.NoError(t, err)

	w := Writer{DB: db, Now: func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }}
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, tx, ProjectSaved, "p1", "project", "p1", "alice", EventPayload{"sections": 3}))
	require.NoError(t, w.AppendEvent(ctx, tx, Event{Type: ProjectCreated, EntityKind: "project", ActorID: "bob"}))
	require.NoError(t, tx.Commit())

	var ts, typ, payload string
	var project sql.NullString
	require.NoError(t, db.QueryRow(`SELECT ts,type,project_id,payload_json FROM events ORDER BY id LIMIT 1`).Scan(&ts, &typ, &project, &payload))
	require.Equal(t, "2025-01-02T03:04:05Z", ts)
	require.Equal(t, ProjectSaved, typ)
	require.Equal(t, "p1", project.String)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	require.EqualValues(t, 3, decoded["sections"])

	require.NoError(t, db.QueryRow(`SELECT project_id,payload_json FROM events ORDER BY id DESC LIMIT 1`).Scan(&project, &payload))
	require.False(t, project.Valid)
	require.Equal(t, "{}", payload)
}

func TestNATSSubject(t *testing.T) {
	p := &NATSPublisher{Prefix: "acme.sites."}
	require.Equal(t, "acme.sites.project.saved", p.Subject(Event{Type: ProjectSaved}))
	p.Prefix = ""
	require.Equal(t, "sitebuilder.events.project.deleted", p.Subject(Event{Type: ProjectDeleted}))
	require.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}
