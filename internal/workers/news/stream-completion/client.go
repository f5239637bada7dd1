package streamcompletion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	commonhttp "grokipedia-x/internal/common/http"
	"grokipedia-x/internal/models"
)

// ErrGatewayTimeout marks a stream the upstream gateway aborted before the
// first chunk arrived. The transport adapter attaches it to every HTTP 504,
// so the typed check is deliberately wider than the message match in
// isGatewayTimeout, which requires both "invalid compression flag" and
// "504 Gateway Timeout". A 504 without the compression-flag text is retried.
var ErrGatewayTimeout = errors.New("completion stream aborted (gateway timeout before first chunk)")

// ChunkStream yields stream chunks in arrival order until io.EOF.
type ChunkStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// CompletionClient opens streamed chat completions.
type CompletionClient interface {
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (ChunkStream, error)
}

// XAIClient talks to the OpenAI-compatible xAI chat completions endpoint.
type XAIClient struct {
	client *openai.Client
}

func NewXAIClient(config *Config, opts ...commonhttp.Option) *XAIClient {
	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	opts = append([]commonhttp.Option{commonhttp.WithUserAgent(config.UserAgent)}, opts...)
	oc.HTTPClient = commonhttp.NewClient(config.Timeout, opts...)

	return &XAIClient{client: openai.NewClientWithConfig(oc)}
}

func (c *XAIClient) CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (ChunkStream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, mapTransportError(err)
	}
	return &xaiStream{stream: stream}, nil
}

type xaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *xaiStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	chunk, err := s.stream.Recv()
	if err != nil && !errors.Is(err, io.EOF) {
		return chunk, mapTransportError(err)
	}
	return chunk, err
}

func (s *xaiStream) Close() error {
	return s.stream.Close()
}

func mapTransportError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: %w", ErrGatewayTimeout, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: %w", ErrGatewayTimeout, err)
	}
	return err
}

// isGatewayTimeout reports the one transient fault. Opaque errors are matched
// on the gateway's message.
func isGatewayTimeout(err error) bool {
	if errors.Is(err, ErrGatewayTimeout) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid compression flag") && strings.Contains(msg, "504 Gateway Timeout")
}

func translateRequest(req models.CompletionRequest) openai.ChatCompletionRequest {
	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, name := range req.Tools {
		tools = append(tools, openai.Tool{Type: openai.ToolType(name)})
	}
	return openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Tools:             tools,
		ParallelToolCalls: req.ParallelToolCalls,
		Stream:            true,
	}
}
