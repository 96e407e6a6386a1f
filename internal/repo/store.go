package repo

import (
	"context"
	"database/sql"
	"fmt"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/events"
)

// Store is the SQLite project store. Each write and its event commit in one
// transaction.
type Store struct {
	Repo   Repo
	Events events.Writer
}

func NewStore(db *sql.DB) Store {
	return Store{Repo: Repo{DB: db}, Events: events.Writer{DB: db}}
}

func (s Store) withTx(ctx context.Context, evt events.Event, fn func(tx *sql.Tx) error) error {
	tx, err := s.Repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.Events.AppendEvent(ctx, tx, evt); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return tx.Commit()
}

func (s Store) InsertProject(ctx context.Context, p domain.Project, evt events.Event) error {
	return s.withTx(ctx, evt, func(tx *sql.Tx) error {
		if err := s.Repo.InsertProjectTx(ctx, tx, p); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return nil
	})
}

func (s Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return s.Repo.GetProject(ctx, id)
}

func (s Store) ListProjectsByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	return s.Repo.ListProjectsByOwner(ctx, ownerID)
}

func (s Store) UpdateDocument(ctx context.Context, id string, u domain.DocumentUpdate, evt events.Event) error {
	return s.withTx(ctx, evt, func(tx *sql.Tx) error {
		return s.Repo.UpdateDocumentTx(ctx, tx, id, u)
	})
}

func (s Store) SetVisibility(ctx context.Context, id string, public bool, updatedAt string, evt events.Event) error {
	return s.withTx(ctx, evt, func(tx *sql.Tx) error {
		return s.Repo.SetVisibilityTx(ctx, tx, id, public, updatedAt)
	})
}

func (s Store) DeleteProject(ctx context.Context, id string, evt events.Event) error {
	return s.withTx(ctx, evt, func(tx *sql.Tx) error {
		return s.Repo.DeleteProjectTx(ctx, tx, id)
	})
}

// RecordEvent appends an event that has no accompanying row change.
func (s Store) RecordEvent(ctx context.Context, evt events.Event) error {
	return s.withTx(ctx, evt, func(*sql.Tx) error { return nil })
}
