// Package catalog persists the file catalog and the resolver backend
// selection in a document store. The files collection carries a unique
// index on the file name, which is the final arbiter for deduplication.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"terarelay/internal"
)

const (
	filesCollection    = "files"
	settingsCollection = "settings"
	backendSettingKey  = "current_backend"
)

// Store is the Mongo-backed catalog and settings store.
type Store struct {
	client   *mongo.Client
	files    *mongo.Collection
	settings *mongo.Collection
}

// Connect establishes the Mongo connection and verifies it with a ping.
// A failure here is fatal to startup; the pipeline must not run without
// its persistence layer.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:   client,
		files:    db.Collection(filesCollection),
		settings: db.Collection(settingsCollection),
	}, nil
}

// Init ensures the unique file-name index exists and seeds the backend
// selection with defaultBackend when none is stored yet.
func (s *Store) Init(ctx context.Context, defaultBackend string) error {
	_, err := s.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create file_name index: %w", err)
	}

	current, err := s.ActiveBackend(ctx)
	if err != nil {
		return err
	}
	if current == "" {
		if err := s.SetActiveBackend(ctx, defaultBackend); err != nil {
			return err
		}
		internal.LogInfo("seeded default backend selection", zap.String("backend", defaultBackend))
	}

	return nil
}

// Close disconnects from Mongo.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Find looks up a catalog record by file name. Returns (nil, nil) when no
// record exists.
func (s *Store) Find(ctx context.Context, name string) (*internal.CatalogRecord, error) {
	var rec internal.CatalogRecord
	err := s.files.FindOne(ctx, bson.M{"file_name": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	return &rec, nil
}

// Insert stores a catalog record. The unique index makes concurrent inserts
// of the same name resolve to exactly one winner; the loser gets an error
// wrapping internal.ErrDuplicateKey.
func (s *Store) Insert(ctx context.Context, rec *internal.CatalogRecord) error {
	_, err := s.files.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", internal.ErrDuplicateKey, rec.Name)
	}
	if err != nil {
		return fmt.Errorf("catalog insert failed: %w", err)
	}
	return nil
}

type settingDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// ActiveBackend returns the stored backend selection, or an empty string
// when none has been stored yet.
func (s *Store) ActiveBackend(ctx context.Context) (string, error) {
	var doc settingDoc
	err := s.settings.FindOne(ctx, bson.M{"key": backendSettingKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings lookup failed: %w", err)
	}
	return doc.Value, nil
}

// SetActiveBackend persists the backend selection. The upsert either
// rewrites the existing document or creates it, so a failure never leaves
// the selection in a half-written state.
func (s *Store) SetActiveBackend(ctx context.Context, id string) error {
	_, err := s.settings.UpdateOne(ctx,
		bson.M{"key": backendSettingKey},
		bson.M{"$set": bson.M{"value": id}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to persist backend selection: %w", err)
	}
	return nil
}
