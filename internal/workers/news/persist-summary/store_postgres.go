package persistsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/models"
)

type postgresStore struct {
	client  *database.PostgresClient
	table   string
	timeout time.Duration
}

func newPostgresStore(client *database.PostgresClient, table string, timeout time.Duration) *postgresStore {
	return &postgresStore{client: client, table: table, timeout: timeout}
}

func (s *postgresStore) Backend() string { return config.BackendPostgres }

func (s *postgresStore) Target() string {
	return fmt.Sprintf("PostgreSQL table %q", s.table)
}

func (s *postgresStore) ensureTable(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		model      TEXT NOT NULL,
		summary    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, pq.QuoteIdentifier(s.table))
	if _, err := s.client.Exec(ctx, query); err != nil {
		return fmt.Errorf("create summary table: %w", err)
	}
	return nil
}

func (s *postgresStore) Upsert(ctx context.Context, id string, record models.SummaryRecord) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, model, summary, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET model = EXCLUDED.model, summary = EXCLUDED.summary, updated_at = now()`,
		pq.QuoteIdentifier(s.table))
	_, err = s.client.Exec(ctx, query, id, record.Model, string(summary))
	return err
}

func (s *postgresStore) Close(context.Context) error {
	return s.client.Close()
}
