package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/schema"
)

const mongoCollection = "schema_entries"

// MongoStore persists registry entries in a MongoDB collection, one
// document per entry. The optimistic-lock token is stored as Unix
// nanoseconds so compare-and-swap filters match exactly.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	ID                 string `bson:"_id"`
	Entity             string `bson:"entity"`
	Variant            string `bson:"variant"`
	Version            string `bson:"version"`
	MinSupportedClient string `bson:"min_supported_client"`
	Document           bson.M `bson:"document"`
	MigrationScript    string `bson:"migration_script,omitempty"`
	Status             string `bson:"status"`
	UpdatedAtNanos     int64  `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and ensures the collection indexes.
func NewMongoStore(ctx context.Context, connectionString, database string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "entity", Value: 1},
				{Key: "variant", Value: 1},
				{Key: "version", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "entity", Value: 1},
				{Key: "variant", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, e *registry.Entry) error {
	row, err := toMongoEntry(e)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return registry.ErrExists
		}
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*registry.Entry, error) {
	var row mongoEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching entry: %w", err)
	}
	return fromMongoEntry(&row)
}

func (s *MongoStore) CompareAndSwap(ctx context.Context, e *registry.Entry, expected time.Time) error {
	row, err := toMongoEntry(e)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":        e.ID,
		"status":     string(registry.StatusDraft),
		"updated_at": expected.UnixNano(),
	}
	res, err := s.coll.ReplaceOne(ctx, filter, row)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// The guarded write missed; tell the caller which guard failed.
	cur, err := s.Get(ctx, e.ID)
	if err != nil {
		return err
	}
	if cur.Status != registry.StatusDraft {
		return registry.ErrState
	}
	return registry.ErrConflict
}

func (s *MongoStore) SwapActive(ctx context.Context, id string, at time.Time) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	demote := func(ctx context.Context) error {
		_, err := s.coll.UpdateMany(ctx,
			bson.M{
				"_id":     bson.M{"$ne": id},
				"entity":  cur.Entity,
				"variant": cur.Variant,
				"status":  string(registry.StatusActive),
			},
			bson.M{"$set": bson.M{
				"status":     string(registry.StatusDeprecated),
				"updated_at": at.UnixNano(),
			}})
		return err
	}
	promote := func(ctx context.Context) error {
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"status":     string(registry.StatusActive),
				"updated_at": at.UnixNano(),
			}})
		if err == nil && res.MatchedCount == 0 {
			return registry.ErrNotFound
		}
		return err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, txErr := sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if err := demote(ctx); err != nil {
			return nil, err
		}
		return nil, promote(ctx)
	})
	if txErr == nil {
		return nil
	}
	if errors.Is(txErr, registry.ErrNotFound) {
		return registry.ErrNotFound
	}
	if !transactionsUnsupported(txErr) {
		return fmt.Errorf("swapping active entry: %w", txErr)
	}

	// Standalone deployments reject transactions outright; swap with two
	// ordered writes instead. Demote before promote: a reader inside the
	// window sees no active row for the pair (fails closed), never two
	// active rows.
	if err := demote(ctx); err != nil {
		return fmt.Errorf("demoting previous active entry: %w", err)
	}
	if err := promote(ctx); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return registry.ErrNotFound
		}
		return fmt.Errorf("promoting entry: %w", err)
	}
	return nil
}

// transactionsUnsupported reports the server rejecting the transaction
// outright, which is how a standalone deployment answers; any other
// transaction failure must surface to the caller.
func transactionsUnsupported(err error) bool {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	// IllegalOperation: "Transaction numbers are only allowed on a
	// replica set member or mongos".
	return ce.Code == 20 && strings.Contains(ce.Message, "Transaction")
}

func (s *MongoStore) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "status": string(registry.StatusDraft)})
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	if res.DeletedCount == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return registry.ErrState
}

func (s *MongoStore) Active(ctx context.Context, entity, variant string) (*registry.Entry, error) {
	var row mongoEntry
	err := s.coll.FindOne(ctx, bson.M{
		"entity":  entity,
		"variant": variant,
		"status":  string(registry.StatusActive),
	}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching active entry: %w", err)
	}
	return fromMongoEntry(&row)
}

func (s *MongoStore) ByStatus(ctx context.Context, entity string, status registry.Status) ([]*registry.Entry, error) {
	filter := bson.M{"status": string(status)}
	if entity != "" {
		filter["entity"] = entity
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*registry.Entry
	for cursor.Next(ctx) {
		var row mongoEntry
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decoding entry: %w", err)
		}
		e, err := fromMongoEntry(&row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toMongoEntry(e *registry.Entry) (*mongoEntry, error) {
	data, err := json.Marshal(e.Document)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	var doc bson.M
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("converting document: %w", err)
	}

	return &mongoEntry{
		ID:                 e.ID,
		Entity:             e.Entity,
		Variant:            e.Variant,
		Version:            e.Version,
		MinSupportedClient: e.MinSupportedClient,
		Document:           doc,
		MigrationScript:    e.MigrationScript,
		Status:             string(e.Status),
		UpdatedAtNanos:     e.UpdatedAt.UnixNano(),
	}, nil
}

func fromMongoEntry(row *mongoEntry) (*registry.Entry, error) {
	data, err := json.Marshal(row.Document)
	if err != nil {
		return nil, fmt.Errorf("marshaling stored document: %w", err)
	}
	doc := &schema.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}

	return &registry.Entry{
		ID:                 row.ID,
		Entity:             row.Entity,
		Variant:            row.Variant,
		Version:            row.Version,
		MinSupportedClient: row.MinSupportedClient,
		Document:           doc,
		MigrationScript:    row.MigrationScript,
		Status:             registry.Status(row.Status),
		UpdatedAt:          time.Unix(0, row.UpdatedAtNanos).UTC(),
	}, nil
}
