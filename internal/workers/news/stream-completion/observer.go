package streamcompletion

import (
	"context"
	"fmt"
	"io"

	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/metrics"
	"grokipedia-x/internal/models"
)

// Observer receives stream events. Calls are synchronous and must not block.
type Observer interface {
	OnToolCall(ctx context.Context, event models.ToolCallEvent)
	OnRetry(ctx context.Context, attempt int, err error)
}

// Observers fans events out in order.
type Observers []Observer

func (o Observers) OnToolCall(ctx context.Context, event models.ToolCallEvent) {
	for _, obs := range o {
		obs.OnToolCall(ctx, event)
	}
}

func (o Observers) OnRetry(ctx context.Context, attempt int, err error) {
	for _, obs := range o {
		obs.OnRetry(ctx, attempt, err)
	}
}

type LoggerObserver struct {
	logger logger.Logger
}

func NewLoggerObserver(log logger.Logger) *LoggerObserver {
	return &LoggerObserver{logger: log}
}

func (o *LoggerObserver) OnToolCall(_ context.Context, event models.ToolCallEvent) {
	fields := map[string]interface{}{"toolType": event.Type}
	if event.IsFunction() {
		fields["function"] = event.FunctionName
		fields["arguments"] = event.Arguments
	}
	o.logger.Debug("tool call", fields)
}

func (o *LoggerObserver) OnRetry(_ context.Context, attempt int, err error) {
	o.logger.Warn("completion attempt failed due to gateway timeout, retrying", map[string]interface{}{
		"attempt": attempt,
		"error":   err.Error(),
	})
}

type MetricsObserver struct{}

func (MetricsObserver) OnToolCall(_ context.Context, event models.ToolCallEvent) {
	metrics.ToolCalls.WithLabelValues(event.Type).Inc()
}

func (MetricsObserver) OnRetry(context.Context, int, error) {
	metrics.CompletionRetries.Inc()
}

// ConsoleObserver prints progress lines for interactive runs.
type ConsoleObserver struct {
	w io.Writer
}

func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

func (o *ConsoleObserver) OnToolCall(_ context.Context, event models.ToolCallEvent) {
	fmt.Fprintf(o.w, "Running %s tool...\n", event.Type)
	if event.IsFunction() {
		fmt.Fprintf(o.w, "Calling tool: %s with arguments: %s\n", event.FunctionName, event.Arguments)
	}
}

func (o *ConsoleObserver) OnRetry(_ context.Context, attempt int, _ error) {
	fmt.Fprintf(o.w, "completion attempt %d failed due to gateway timeout, retrying...\n", attempt)
}
