// Package mongostore keeps projects and their events in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/events"
	"sitebuilder/internal/repo"
)

const (
	projectsCollection = "projects"
	eventsCollection   = "events"
)

// projectDoc is the stored shape. The layout stays a JSON string so both
// stores persist byte-identical documents.
type projectDoc struct {
	ID         string `bson:"_id"`
	OwnerID    string `bson:"owner_id"`
	Name       string `bson:"name"`
	Theme      string `bson:"theme"`
	IsPublic   bool   `bson:"is_public"`
	LayoutJSON string `bson:"layout_json"`
	CreatedAt  string `bson:"created_at"`
	UpdatedAt  string `bson:"updated_at"`
}

type eventDoc struct {
	TS         string         `bson:"ts"`
	Type       string         `bson:"type"`
	ProjectID  string         `bson:"project_id,omitempty"`
	EntityKind string         `bson:"entity_kind"`
	EntityID   string         `bson:"entity_id,omitempty"`
	ActorID    string         `bson:"actor_id"`
	Payload    map[string]any `bson:"payload,omitempty"`
}

func toDoc(p domain.Project) projectDoc {
	return projectDoc{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		Name:       p.Name,
		Theme:      p.Theme,
		IsPublic:   p.IsPublic,
		LayoutJSON: p.LayoutJSON,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (d projectDoc) project() domain.Project {
	return domain.Project{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Name:       d.Name,
		Theme:      d.Theme,
		IsPublic:   d.IsPublic,
		LayoutJSON: d.LayoutJSON,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toEventDoc(evt events.Event) eventDoc {
	if evt.TS == "" {
		evt.TS = events.Stamp(nil)
	}
	return eventDoc{
		TS:         evt.TS,
		Type:       evt.Type,
		ProjectID:  evt.ProjectID,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Payload:    evt.Payload,
	}
}

// Store implements the engine's project store on MongoDB. Without a replica
// set there are no multi-document transactions, so the event is written after
// the project change succeeds.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials uri, pings the server and ensures indexes.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("connected to mongo", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.projects().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create project index: %w", err)
	}
	_, err = s.events().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "ts", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create event index: %w", err)
	}
	return nil
}

func (s *Store) projects() *mongo.Collection { return s.db.Collection(projectsCollection) }
func (s *Store) events() *mongo.Collection   { return s.db.Collection(eventsCollection) }

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) InsertProject(ctx context.Context, p domain.Project, evt events.Event) error {
	if _, err := s.projects().InsertOne(ctx, toDoc(p)); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return s.RecordEvent(ctx, evt)
}

func (s *Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var d projectDoc
	err := s.projects().FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Project{}, repo.ErrNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	return d.project(), nil
}

// ListProjectsByOwner returns the owner's projects, most recently updated first.
func (s *Store) ListProjectsByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.projects().Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.project())
	}
	return out, nil
}

func (s *Store) UpdateDocument(ctx context.Context, id string, u domain.DocumentUpdate, evt events.Event) error {
	return s.update(ctx, id, bson.M{
		"name":        u.Name,
		"theme":       u.Theme,
		"layout_json": u.LayoutJSON,
		"updated_at":  u.UpdatedAt,
	}, evt)
}

func (s *Store) SetVisibility(ctx context.Context, id string, public bool, updatedAt string, evt events.Event) error {
	return s.update(ctx, id, bson.M{"is_public": public, "updated_at": updatedAt}, evt)
}

func (s *Store) update(ctx context.Context, id string, set bson.M, evt events.Event) error {
	res, err := s.projects().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return s.RecordEvent(ctx, evt)
}

func (s *Store) DeleteProject(ctx context.Context, id string, evt events.Event) error {
	res, err := s.projects().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return s.RecordEvent(ctx, evt)
}

func (s *Store) RecordEvent(ctx context.Context, evt events.Event) error {
	if _, err := s.events().InsertOne(ctx, toEventDoc(evt)); err != nil {
		s.logger.Warn("mongo event append failed", "type", evt.Type, "project_id", evt.ProjectID, "error", err)
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// LatestEvents returns the newest events of a project, newest first.
func (s *Store) LatestEvents(ctx context.Context, limit int, projectID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.events().Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Event{
			TS:         d.TS,
			Type:       d.Type,
			ProjectID:  d.ProjectID,
			EntityKind: d.EntityKind,
			EntityID:   d.EntityID,
			ActorID:    d.ActorID,
		})
	}
	return out, nil
}
