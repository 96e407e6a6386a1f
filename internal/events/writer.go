package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types appended by the engine.
const (
	ProjectCreated    = "project.created"
	ProjectSaved      = "project.saved"
	ProjectVisibility = "project.visibility"
	ProjectDeleted    = "project.deleted"
	ProjectExported   = "project.exported"
)

type EventPayload map[string]any

// Event is one state change, before it is stored.
type Event struct {
	Type       string       `json:"type"`
	ProjectID  string       `json:"project_id,omitempty"`
	EntityKind string       `json:"entity_kind"`
	EntityID   string       `json:"entity_id,omitempty"`
	ActorID    string       `json:"actor_id"`
	TS         string       `json:"ts"`
	Payload    EventPayload `json:"payload"`
}

// Writer appends events to the SQL event log inside the caller's transaction.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	return w.AppendEvent(ctx, tx, Event{
		Type:       evtType,
		ProjectID:  projectID,
		EntityKind: entityKind,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    payload,
	})
}

// AppendEvent stores evt, stamping it when TS is empty.
func (w Writer) AppendEvent(ctx context.Context, tx *sql.Tx, evt Event) error {
	if evt.TS == "" {
		evt.TS = Stamp(w.Now)
	}
	if evt.Payload == nil {
		evt.Payload = EventPayload{}
	}
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		evt.TS, evt.Type, nullable(evt.ProjectID), evt.EntityKind, nullable(evt.EntityID), evt.ActorID, string(data))
	return err
}

// Stamp formats the current time the way events are stored.
func Stamp(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
