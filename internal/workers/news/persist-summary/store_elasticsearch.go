package persistsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/models"
)

type elasticsearchStore struct {
	client  *database.ElasticsearchClient
	index   string
	timeout time.Duration
	now     func() time.Time
}

func newElasticsearchStore(client *database.ElasticsearchClient, index string, timeout time.Duration) *elasticsearchStore {
	return &elasticsearchStore{client: client, index: index, timeout: timeout, now: time.Now}
}

func (s *elasticsearchStore) Backend() string { return config.BackendElasticsearch }

func (s *elasticsearchStore) Target() string {
	return fmt.Sprintf("Elasticsearch index %q", s.index)
}

// Upsert indexes the record under id, replacing any earlier version.
func (s *elasticsearchStore) Upsert(ctx context.Context, id string, record models.SummaryRecord) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"model":      record.Model,
		"summary":    record.Summary,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal summary document: %w", err)
	}
	return s.client.IndexDocument(ctx, s.index, id, body)
}

func (s *elasticsearchStore) Close(context.Context) error {
	return nil
}
