package persistsummary

import (
	"context"
	"fmt"
	"time"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/models"
)

// Store upserts summary records keyed by document id.
type Store interface {
	Backend() string
	Target() string
	Upsert(ctx context.Context, id string, record models.SummaryRecord) error
	Close(ctx context.Context) error
}

// StoreOpener opens a fresh store connection for one run.
type StoreOpener func(ctx context.Context) (Store, error)

// NewStoreOpener returns nil when the selected backend has no connection
// configured.
func NewStoreOpener(cfg config.StoreConfig) StoreOpener {
	if !cfg.Enabled() {
		return nil
	}
	timeout := config.GetDuration(cfg.Timeout)

	switch cfg.Backend {
	case config.BackendElasticsearch:
		return func(ctx context.Context) (Store, error) {
			client, err := database.NewElasticsearch(cfg.Elasticsearch, nil)
			if err != nil {
				return nil, err
			}
			return newElasticsearchStore(client, cfg.Elasticsearch.Index, timeout), nil
		}
	case config.BackendPostgres:
		return func(ctx context.Context) (Store, error) {
			client, err := database.NewPostgres(cfg.Postgres)
			if err != nil {
				return nil, err
			}
			store := newPostgresStore(client, cfg.Postgres.Table, timeout)
			if err := store.ensureTable(ctx); err != nil {
				_ = client.Close()
				return nil, err
			}
			return store, nil
		}
	case config.BackendMongo, "":
		return func(ctx context.Context) (Store, error) {
			client, err := database.NewMongo(ctx, cfg.Mongo, timeout)
			if err != nil {
				return nil, err
			}
			pingCtx, cancel := withTimeout(ctx, timeout)
			err = client.Ping(pingCtx)
			cancel()
			if err != nil {
				_ = client.Close(ctx)
				return nil, err
			}
			coll := mongoCollection{coll: client.Collection(cfg.Mongo.Database, cfg.Mongo.Collection)}
			return newMongoStore(client, coll, cfg.Mongo.Database, cfg.Mongo.Collection, timeout), nil
		}
	default:
		return func(context.Context) (Store, error) {
			return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
		}
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
