package persistsummary

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grokipedia-x/internal/common/config"
	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/models"
)

func testRecord() models.SummaryRecord {
	return models.SummaryRecord{
		Model: "grok-4-fast-non-reasoning",
		Summary: []interface{}{
			map[string]interface{}{
				"grokipedia_url": "https://grokipedia.com/page/Example",
				"suggested_edit": "Add the <court> ruling",
				"original_text":  "The case is pending.",
			},
		},
	}
}

func testConfig(t *testing.T) *Config {
	return &Config{
		Path:       filepath.Join(t.TempDir(), "summary.json"),
		DocumentID: config.DocumentIDTimestamped,
		Backend:    config.BackendMongo,
	}
}

func readRecord(t *testing.T, path string) models.SummaryRecord {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec models.SummaryRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}

type fakeStore struct {
	upserted  map[string]models.SummaryRecord
	upsertErr error
	closed    bool
}

func (s *fakeStore) Backend() string { return "fake" }
func (s *fakeStore) Target() string  { return `fake table "summaries"` }

func (s *fakeStore) Upsert(_ context.Context, id string, record models.SummaryRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.upserted == nil {
		s.upserted = map[string]models.SummaryRecord{}
	}
	s.upserted[id] = record
	return nil
}

func (s *fakeStore) Close(context.Context) error {
	s.closed = true
	return nil
}

func openerFor(s Store) StoreOpener {
	return func(context.Context) (Store, error) { return s, nil }
}

type fakeNotifier struct {
	got []Notification
	err error
}

func (n *fakeNotifier) Notify(_ context.Context, msg Notification) (string, error) {
	n.got = append(n.got, msg)
	if n.err != nil {
		return "", n.err
	}
	return "msg-1", nil
}

func TestHandler_Execute_WritesFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Path, []byte(`{"model":"stale","summary":[1,2,3,4,5,6,7,8]}`), 0o644))

	h := NewHandler(cfg, nil, nil, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Record: testRecord()})
	require.NoError(t, err)

	assert.Equal(t, cfg.Path, out.Path)
	assert.Equal(t, testRecord(), readRecord(t, cfg.Path))

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\n  \"model\": \"grok-4-fast-non-reasoning\",\n  \"summary\": [\n    {")
	assert.Contains(t, string(data), "Add the <court> ruling")

	entries, err := os.ReadDir(filepath.Dir(cfg.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandler_Execute_WritesExactNumbers(t *testing.T) {
	cfg := testConfig(t)
	h := NewHandler(cfg, nil, nil, logger.NewTestLogger(t))

	record := models.SummaryRecord{
		Model:   "grok-4",
		Summary: []interface{}{map[string]interface{}{"post_id": json.Number("1989418137272422538")}},
	}
	_, err := h.Execute(context.Background(), &Input{Record: record})
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"model\": \"grok-4\",\n  \"summary\": [\n    {\n      \"post_id\": 1989418137272422538\n    }\n  ]\n}\n", string(data))
}

func TestHandler_Execute_WithoutStoreIsNoop(t *testing.T) {
	h := NewHandler(testConfig(t), nil, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Record: testRecord()})
	require.NoError(t, err)
	assert.False(t, out.Stored)
	assert.Empty(t, out.StoreError)
	assert.Empty(t, out.DocumentID)

	assert.Nil(t, NewStoreOpener(config.StoreConfig{Backend: config.BackendMongo}))
}

func TestHandler_Execute_Upserts(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	h := NewHandler(testConfig(t), openerFor(store), notifier, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 10, 19, 8, 30, 15, 123456789, time.FixedZone("IST", 19800)) }

	out, err := h.Execute(context.Background(), &Input{Record: testRecord(), RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, "grok-4-fast-non-reasoning-20251019T030015.123Z", out.DocumentID)
	assert.True(t, out.Stored)
	assert.Equal(t, `fake table "summaries"`, out.StoreTarget)
	assert.Equal(t, testRecord(), store.upserted[out.DocumentID])
	assert.True(t, store.closed)

	assert.Equal(t, "msg-1", out.NotificationID)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, Notification{
		RunID:      "run-1",
		DocumentID: out.DocumentID,
		Model:      "grok-4-fast-non-reasoning",
		Entries:    1,
		Path:       out.Path,
		Stored:     true,
	}, notifier.got[0])
}

func TestHandler_Execute_StoreFailureIsNotFatal(t *testing.T) {
	tests := []struct {
		name   string
		opener StoreOpener
	}{
		{
			name:   "connection refused",
			opener: func(context.Context) (Store, error) { return nil, errors.New("no reachable servers") },
		},
		{
			name:   "upsert rejected",
			opener: openerFor(&fakeStore{upsertErr: errors.New("not primary")}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			notifier := &fakeNotifier{err: errors.New("AccessDenied")}
			h := NewHandler(cfg, tt.opener, notifier, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{Record: testRecord()})
			require.NoError(t, err)

			assert.False(t, out.Stored)
			assert.Contains(t, out.StoreError, string(apperrors.ErrCodeStorePersistFailed))
			assert.Contains(t, out.NotificationError, "AccessDenied")
			assert.Equal(t, testRecord(), readRecord(t, cfg.Path))
			require.Len(t, notifier.got, 1)
			assert.False(t, notifier.got[0].Stored)
		})
	}
}

func TestHandler_Execute_UnreachableMongo(t *testing.T) {
	cfg := testConfig(t)
	opener := NewStoreOpener(config.StoreConfig{
		Backend: config.BackendMongo,
		Timeout: 300,
		Mongo: config.MongoConfig{
			URI:        "mongodb://127.0.0.1:1/?connectTimeoutMS=300",
			Database:   "grokipedia",
			Collection: "summaries",
		},
	})
	require.NotNil(t, opener)

	h := NewHandler(cfg, opener, nil, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Record: testRecord()})
	require.NoError(t, err)

	assert.False(t, out.Stored)
	assert.Contains(t, out.StoreError, "mongo ping failed")
	assert.Empty(t, out.StoreTarget)
	assert.Equal(t, testRecord(), readRecord(t, cfg.Path))
}

func TestHandler_Execute_FileFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Path = filepath.Join(t.TempDir(), "missing", "summary.json")
	store := &fakeStore{}

	h := NewHandler(cfg, openerFor(store), nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Record: testRecord()})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrCodeFilePersistFailed, apperrors.CodeOf(err))
	assert.Equal(t, 6, apperrors.ExitCode(err))
	assert.Empty(t, store.upserted)
}

func TestDocumentID(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)

	assert.Equal(t, "grok-4-20250102T030405.006Z", DocumentID(config.DocumentIDTimestamped, "grok-4", now))
	assert.Equal(t, "grok-4-20250102T030405.006Z", DocumentID("", "grok-4", now))
	assert.Equal(t, "grok-4", DocumentID(config.DocumentIDModel, "grok-4", now))
	assert.Equal(t, "latest-summary-20250102T030405.006Z", DocumentID(config.DocumentIDTimestamped, " ", now))
	assert.Equal(t, "latest-summary", DocumentID(config.DocumentIDModel, "", now))
}
