package fetchpayload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "grokipedia-x/internal/common/errors"
	commonhttp "grokipedia-x/internal/common/http"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/metrics"
	"grokipedia-x/internal/models"
)

const (
	TaskType = "fetch-payload"

	cacheKeyPrefix = "grokipedia:payload:"
	maxErrorBody   = 512
)

// PayloadCache stores raw payloads by key. *database.RedisClient satisfies it.
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Handler struct {
	config *Config
	client *commonhttp.Client
	cache  PayloadCache
	logger logger.Logger
}

// NewHandler builds the fetcher. cache may be nil.
func NewHandler(config *Config, cache PayloadCache, log logger.Logger, opts ...commonhttp.Option) *Handler {
	opts = append([]commonhttp.Option{
		commonhttp.WithBearerToken(config.BearerToken),
		commonhttp.WithUserAgent(config.UserAgent),
		commonhttp.WithHeader("Accept", "application/json"),
	}, opts...)

	return &Handler{
		config: config,
		client: commonhttp.NewClient(config.Timeout, opts...),
		cache:  cache,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute fetches one page of search results for the resolved query.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	preset, err := Resolve(input.Query, input.Preset)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(0, err)
	}
	searchURL := h.searchURL(preset)

	if payload, ok := h.lookup(ctx, searchURL); ok {
		h.logger.Info("payload served from cache", map[string]interface{}{
			"query":   preset.Query,
			"entries": payload.ExpectedEntries(),
		})
		return &Output{Payload: payload, Query: preset.Query, URL: searchURL, Cached: true}, nil
	}

	raw, err := h.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	payload, err := models.NewPayload(raw)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(http.StatusOK, fmt.Errorf("decode search response: %w", err))
	}

	h.store(ctx, searchURL, raw)

	h.logger.Info("payload fetched", map[string]interface{}{
		"query":    preset.Query,
		"endpoint": preset.Endpoint,
		"preset":   preset.Name,
		"entries":  payload.ExpectedEntries(),
	})
	return &Output{Payload: payload, Query: preset.Query, URL: searchURL}, nil
}

func (h *Handler) searchURL(p Preset) string {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(h.config.MaxResults))
	params.Set("query", p.Query)
	if p.SortOrder != "" {
		params.Set("sort_order", p.SortOrder)
	}
	return fmt.Sprintf("%s/2/tweets/search/%s?%s", strings.TrimRight(h.config.BaseURL, "/"), p.Endpoint, params.Encode())
}

func (h *Handler) fetch(ctx context.Context, searchURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(0, err)
	}

	resp, err := h.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperrors.NewFetchFailedError(resp.StatusCode,
			fmt.Errorf("search returned %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(resp.StatusCode, fmt.Errorf("read search response: %w", err))
	}
	return raw, nil
}

func cacheKey(searchURL string) string {
	sum := sha256.Sum256([]byte(searchURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (h *Handler) lookup(ctx context.Context, searchURL string) (*models.Payload, bool) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}
	raw, found, err := h.cache.Get(ctx, cacheKey(searchURL))
	if err != nil {
		metrics.PayloadCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("payload cache lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	if !found {
		metrics.PayloadCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	payload, err := models.NewPayload(raw)
	if err != nil {
		metrics.PayloadCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("cached payload is not valid JSON", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	metrics.PayloadCacheLookups.WithLabelValues("hit").Inc()
	return payload, true
}

func (h *Handler) store(ctx context.Context, searchURL string, raw []byte) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	if err := h.cache.Set(ctx, cacheKey(searchURL), raw, h.config.CacheTTL); err != nil {
		h.logger.Warn("payload cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
