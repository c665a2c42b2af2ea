package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// MongoStore stores records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(cfg *config.MongoConfig, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger.With("component", "mongo_store"),
	}, nil
}

// QueryEqual finds documents whose field equals value.
func (s *MongoStore) QueryEqual(ctx context.Context, field, value string) ([]types.Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{field: value}, options.Find().SetLimit(25))
	if err != nil {
		return nil, s.wrap("query", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.wrap("query", err)
	}

	records := make([]types.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, types.Record{ID: mongoID(doc["_id"]), Fields: doc})
	}
	return records, nil
}

// Insert writes one document and returns its object id.
func (s *MongoStore) Insert(ctx context.Context, p types.Payload) (string, error) {
	res, err := s.coll.InsertOne(ctx, bson.M(p))
	if err != nil {
		return "", s.wrap("insert", err)
	}
	return mongoID(res.InsertedID), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return s.wrap("ping", err)
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) wrap(op string, err error) error {
	return &types.StoreError{Backend: "mongodb", Op: op, Err: err}
}

func mongoID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
