package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"grokipedia-x/internal/common/config"
)

// MongoClient wraps the MongoDB client
type MongoClient struct {
	Client *mongo.Client
}

// NewMongo creates a client for cfg.URI. Server selection is bounded by
// timeout so an unreachable deployment fails the first operation promptly.
func NewMongo(ctx context.Context, cfg config.MongoConfig, timeout time.Duration) (*MongoClient, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if timeout > 0 {
		opts.SetServerSelectionTimeout(timeout).SetConnectTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	return &MongoClient{Client: client}, nil
}

// Ping checks that a primary is reachable.
func (c *MongoClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// Collection selects a collection in database.
func (c *MongoClient) Collection(database, collection string) *mongo.Collection {
	return c.Client.Database(database).Collection(collection)
}

// Close disconnects the client.
func (c *MongoClient) Close(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}
