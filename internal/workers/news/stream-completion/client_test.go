package streamcompletion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
)

func newServerHandler(t *testing.T, url string, rec *recordingObserver) *Handler {
	cfg := &Config{BaseURL: url, APIKey: "xai-test", UserAgent: "grokipedia-x/0.1", MaxAttempts: 3}
	return NewHandler(cfg, NewXAIClient(cfg), logger.NewTestLogger(t), rec)
}

func TestXAIClient_StreamsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer xai-test", r.Header.Get("Authorization"))
		assert.Equal(t, "grokipedia-x/0.1", r.Header.Get("User-Agent"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, true, body["parallel_tool_calls"])
		assert.Len(t, body["tools"], 3)

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"1","object":"chat.completion.chunk","model":"grok","choices":[{"index":0,"delta":{"content":"[1,"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","model":"grok","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"c1","type":"function","function":{"name":"x_search","arguments":"{}"}}]}}]}`,
			`{"id":"1","object":"chat.completion.chunk","model":"grok","choices":[{"index":0,"delta":{"content":"2]"}}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	rec := &recordingObserver{}
	out, err := newServerHandler(t, server.URL, rec).Execute(context.Background(), &Input{Request: testRequest()})
	require.NoError(t, err)

	assert.Equal(t, "[1,2]", out.Summary)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "x_search", rec.events[0].FunctionName)
}

func TestXAIClient_GatewayTimeoutIsRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte("<html><body>504 Gateway Time-out</body></html>"))
	}))
	defer server.Close()

	rec := &recordingObserver{}
	_, err := newServerHandler(t, server.URL, rec).Execute(context.Background(), &Input{Request: testRequest()})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrCodeCompletionGatewayTimeout, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, ErrGatewayTimeout)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []int{1, 2}, rec.retries)
}

func TestXAIClient_UnauthorizedIsFatal(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	_, err := newServerHandler(t, server.URL, &recordingObserver{}).Execute(context.Background(), &Input{Request: testRequest()})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrCodeCompletionFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Incorrect API key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
