package streamcompletion

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/metrics"
	"grokipedia-x/internal/models"
)

const (
	TaskType = "stream-completion"

	functionToolType = "function"
)

type Handler struct {
	config    *Config
	client    CompletionClient
	observers Observers
	logger    logger.Logger
}

// NewHandler wires the aggregator. Tool calls and retries always reach the
// logger and metrics observers before any extra observers.
func NewHandler(config *Config, client CompletionClient, log logger.Logger, extra ...Observer) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	observers := Observers{NewLoggerObserver(log), MetricsObserver{}}
	observers = append(observers, extra...)

	return &Handler{
		config:    config,
		client:    client,
		observers: observers,
		logger:    log,
	}
}

// Execute runs the request, re-issuing it from scratch after a gateway
// timeout until the attempt budget is spent.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	maxAttempts := h.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		metrics.CompletionAttempts.Inc()

		summary, err := h.attempt(ctx, input.Request)
		if err == nil {
			h.logger.Info("completion stream finished", map[string]interface{}{
				"model":    input.Request.Model,
				"attempts": attempt,
				"length":   len(summary),
			})
			return &Output{Summary: summary, Model: input.Request.Model, Attempts: attempt}, nil
		}

		lastErr = err
		if !apperrors.IsRetryable(err) || attempt == maxAttempts {
			return nil, err
		}
		h.observers.OnRetry(ctx, attempt, err)
	}
	return nil, lastErr
}

func (h *Handler) attempt(ctx context.Context, req models.CompletionRequest) (string, error) {
	stream, err := h.client.CreateChatCompletionStream(ctx, translateRequest(req))
	if err != nil {
		return "", classify(err)
	}
	defer stream.Close()

	return h.aggregate(ctx, stream)
}

// aggregate drains the stream. Within a choice, tool calls are reported
// before its content is appended.
func (h *Handler) aggregate(ctx context.Context, stream ChunkStream) (string, error) {
	var summary strings.Builder
	calls := &toolCalls{observers: h.observers}
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			calls.flush(ctx)
			return "", classify(err)
		}

		for _, choice := range chunk.Choices {
			for _, call := range choice.Delta.ToolCalls {
				calls.add(ctx, call)
			}
			if choice.Delta.Content != "" {
				calls.flush(ctx)
				summary.WriteString(choice.Delta.Content)
			}
		}
	}
	calls.flush(ctx)

	if strings.TrimSpace(summary.String()) == "" {
		return "", apperrors.NewCompletionEmptyError()
	}
	return summary.String(), nil
}

// toolCalls assembles a tool call whose arguments arrive over several deltas.
// Continuation deltas carry neither a type nor a name, only an argument
// fragment for the call at the same index. A call is reported once content,
// another call or the end of the stream follows it.
type toolCalls struct {
	observers Observers
	pending   *models.ToolCallEvent
	index     *int
}

func (b *toolCalls) add(ctx context.Context, call openai.ToolCall) {
	if call.Type == "" && call.Function.Name == "" {
		if b.pending != nil && b.pending.IsFunction() && sameIndex(b.index, call.Index) {
			b.pending.Arguments += call.Function.Arguments
		}
		return
	}
	b.flush(ctx)
	event := toolCallEvent(call)
	b.pending = &event
	b.index = call.Index
}

func (b *toolCalls) flush(ctx context.Context) {
	if b.pending == nil {
		return
	}
	b.observers.OnToolCall(ctx, *b.pending)
	b.pending = nil
	b.index = nil
}

func sameIndex(a, b *int) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func toolCallEvent(call openai.ToolCall) models.ToolCallEvent {
	event := models.ToolCallEvent{Type: string(call.Type)}
	if call.Function.Name != "" {
		if event.Type == "" {
			event.Type = functionToolType
		}
		event.FunctionName = call.Function.Name
		event.Arguments = call.Function.Arguments
	}
	return event
}

func classify(err error) error {
	if isGatewayTimeout(err) {
		return apperrors.NewCompletionGatewayTimeoutError(err)
	}
	return apperrors.NewCompletionFailedError(err)
}
