package fetchpayload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
)

const samplePayload = `{"data":[{"id":"1","text":"Minister resigns"},{"id":"2","text":"Court ruling"}],"meta":{"result_count":2}}`

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		BearerToken: "test-bearer",
		UserAgent:   "grokipedia-x/0.1",
		MaxResults:  100,
		Timeout:     5 * time.Second,
		CacheTTL:    5 * time.Minute,
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	var gotPath, gotQuery, gotMax, gotSort string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-bearer", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "grokipedia-x/0.1", r.Header.Get("User-Agent"))
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotMax = r.URL.Query().Get("max_results")
		gotSort = r.URL.Query().Get("sort_order")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	tests := []struct {
		name     string
		input    Input
		wantPath string
		wantQ    string
		wantSort string
	}{
		{name: "default query", input: Input{}, wantPath: "/2/tweets/search/all", wantQ: "government"},
		{name: "ad-hoc query", input: Input{Query: "election results"}, wantPath: "/2/tweets/search/all", wantQ: "election results"},
		{name: "full archive preset", input: Input{Preset: "crime"}, wantPath: "/2/tweets/search/all", wantQ: "crime"},
		{name: "recent preset with ordering", input: Input{Preset: "sports"}, wantPath: "/2/tweets/search/recent", wantQ: presets["sports"].Query, wantSort: "recency"},
		{name: "preset wins over query", input: Input{Query: "ignored", Preset: "News"}, wantPath: "/2/tweets/search/recent", wantQ: presets["news"].Query},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(server.URL), nil, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, tt.wantQ, gotQuery)
			assert.Equal(t, "100", gotMax)
			assert.Equal(t, tt.wantSort, gotSort)
			assert.Equal(t, 2, out.Payload.ExpectedEntries())
			assert.False(t, out.Cached)
			assert.Equal(t, tt.wantQ, out.Query)
		})
	}
}

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		input      Input
		wantStatus interface{}
		wantText   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"title":"Unauthorized"}`, wantStatus: http.StatusUnauthorized, wantText: "Unauthorized"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"title":"Too Many Requests"}`, wantStatus: http.StatusTooManyRequests},
		{name: "not json", status: http.StatusOK, body: `<html>oops</html>`, wantStatus: http.StatusOK, wantText: "decode search response"},
		{name: "unknown preset", status: http.StatusOK, body: samplePayload, input: Input{Preset: "weather"}, wantText: "unknown preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			h := NewHandler(createTestConfig(server.URL), nil, logger.NewTestLogger(t))
			_, err := h.Execute(context.Background(), &tt.input)
			require.Error(t, err)

			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeFetchFailed, stdErr.Code)
			assert.False(t, stdErr.Retryable)
			if tt.wantStatus != nil {
				assert.Equal(t, tt.wantStatus, stdErr.Metadata["status"])
			}
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}
		})
	}
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	cache := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer cache.Close()

	h := NewHandler(createTestConfig(server.URL), cache, logger.NewTestLogger(t))

	first, err := h.Execute(context.Background(), &Input{Query: "government"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := h.Execute(context.Background(), &Input{Query: "government"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Payload.Raw(), second.Payload.Raw())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	ttl := mr.TTL(cacheKey(first.URL))
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHandler(createTestConfig(server.URL), nil, logger.NewTestLogger(t))
	_, err := h.Execute(ctx, &Input{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFetchFailed, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestHandler_Execute_CacheErrorFallsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	db, mock := redismock.NewClientMock()
	cfg := createTestConfig(server.URL)
	h := NewHandler(cfg, &database.RedisClient{Client: db}, logger.NewTestLogger(t))

	mock.ExpectGet(cacheKey(h.searchURL(Preset{Endpoint: EndpointAll, Query: "government"}))).
		SetErr(errors.New("connection refused"))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, out.Payload.ExpectedEntries())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve(t *testing.T) {
	p, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery, p.Query)
	assert.Equal(t, EndpointAll, p.Endpoint)

	p, err = Resolve("", "breaking")
	require.NoError(t, err)
	assert.Equal(t, EndpointRecent, p.Endpoint)
	assert.Equal(t, "recency", p.SortOrder)
	assert.Contains(t, p.Query, "min_likes:100")

	_, err = Resolve("", "nope")
	assert.Error(t, err)

	assert.Equal(t, []string{"announcements", "breaking", "crime", "general", "news", "politics", "relevant", "sports"}, PresetNames())
}
