package persistsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/models"
)

type mongoStore struct {
	client     *database.MongoClient
	coll       collection
	database   string
	collection string
	timeout    time.Duration
}

func newMongoStore(client *database.MongoClient, coll collection, db, name string, timeout time.Duration) *mongoStore {
	return &mongoStore{client: client, coll: coll, database: db, collection: name, timeout: timeout}
}

func (s *mongoStore) Backend() string { return config.BackendMongo }

func (s *mongoStore) Target() string {
	return fmt.Sprintf("MongoDB collection %q (db: %q)", s.collection, s.database)
}

// Upsert replaces the record fields of document id and stamps updated_at with
// the server clock.
func (s *mongoStore) Upsert(ctx context.Context, id string, record models.SummaryRecord) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"model":   record.Model,
			"summary": bsonValue(record.Summary),
		},
		"$currentDate": bson.M{"updated_at": true},
	}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// bsonValue rewrites json.Number leaves as BSON numbers. Integers that do not
// fit in int64 are stored as Decimal128 so no digits are lost.
func bsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, vv := range x {
			out[k] = bsonValue(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, vv := range x {
			out[i] = bsonValue(vv)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			if d, err := primitive.ParseDecimal128(x.String()); err == nil {
				return d
			}
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return v
	}
}

func (s *mongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close(ctx)
}

type collection interface {
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error)
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}
