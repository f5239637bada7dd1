package summarizenews

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"grokipedia-x/internal/common/camunda"
	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/metrics"
	"grokipedia-x/internal/common/observability"
	buildrequest "grokipedia-x/internal/workers/news/build-request"
	extractresult "grokipedia-x/internal/workers/news/extract-result"
	fetchpayload "grokipedia-x/internal/workers/news/fetch-payload"
	persistsummary "grokipedia-x/internal/workers/news/persist-summary"
	streamcompletion "grokipedia-x/internal/workers/news/stream-completion"
)

const TaskType = "summarize-news"

type Handler struct {
	config       *Config
	stages       Stages
	progress     Progress
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the pipeline. progress and obs may be nil.
func NewHandler(config *Config, stages Stages, progress Progress, obs *observability.Observability, log logger.Logger) *Handler {
	if progress == nil {
		progress = noProgress{}
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		stages:       stages,
		progress:     progress,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle runs the pipeline for one Zeebe job.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()
	input, err := h.parseInput(job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	vars := job.GetVariables()
	if vars == "" {
		return &input, nil
	}
	if err := json.Unmarshal([]byte(vars), &input); err != nil {
		return nil, apperrors.NewInvalidJobInputError(err)
	}
	return &input, nil
}

// Execute performs one run: fetch, build, stream with retry, extract, then
// persist.
func (h *Handler) Execute(ctx context.Context, input *Input) (output *Output, err error) {
	runID := uuid.NewString()
	log := h.logger.With(map[string]interface{}{"runId": runID})

	ctx, span := h.obs.StartSpan(ctx, TaskType, map[string]string{"run.id": runID})
	defer span.End()

	defer func() {
		if err != nil {
			metrics.RunsCompleted.WithLabelValues("failure", string(apperrors.CodeOf(err))).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
			log.Error("run failed", map[string]interface{}{"error": err.Error()})
			return
		}
		metrics.RunsCompleted.WithLabelValues("success", "").Inc()
	}()

	var fetched *fetchpayload.Output
	err = h.stage(ctx, fetchpayload.TaskType, func(ctx context.Context) (e error) {
		fetched, e = h.stages.Fetch.Execute(ctx, &fetchpayload.Input{Query: input.Query, Preset: input.Preset})
		return e
	})
	if err != nil {
		return nil, err
	}
	h.progress.PayloadFetched(fetched)

	var built *buildrequest.Output
	err = h.stage(ctx, buildrequest.TaskType, func(ctx context.Context) (e error) {
		built, e = h.stages.Build.Execute(ctx, &buildrequest.Input{Payload: fetched.Payload, Model: input.Model})
		return e
	})
	if err != nil {
		return nil, err
	}

	var completed *streamcompletion.Output
	err = h.stage(ctx, streamcompletion.TaskType, func(ctx context.Context) (e error) {
		completed, e = h.stages.Complete.Execute(ctx, &streamcompletion.Input{Request: built.Request})
		return e
	})
	if err != nil {
		return nil, err
	}
	h.progress.SummaryReceived(completed)

	var extracted *extractresult.Output
	err = h.stage(ctx, extractresult.TaskType, func(ctx context.Context) (e error) {
		extracted, e = h.stages.Extract.Execute(ctx, &extractresult.Input{Summary: completed.Summary, Model: completed.Model})
		return e
	})
	if err != nil {
		return nil, err
	}

	var persisted *persistsummary.Output
	err = h.stage(ctx, persistsummary.TaskType, func(ctx context.Context) (e error) {
		persisted, e = h.stages.Persist.Execute(ctx, &persistsummary.Input{Record: extracted.Record, RunID: runID})
		return e
	})
	if err != nil {
		return nil, err
	}
	h.progress.SummaryPersisted(persisted)

	log.Info("run completed", map[string]interface{}{
		"query":    fetched.Query,
		"entries":  extracted.Entries,
		"attempts": completed.Attempts,
		"stored":   persisted.Stored,
	})

	return &Output{
		RunID:            runID,
		Query:            fetched.Query,
		Model:            completed.Model,
		PayloadCached:    fetched.Cached,
		Attempts:         completed.Attempts,
		Entries:          extracted.Entries,
		SchemaViolations: extracted.SchemaViolations,
		Path:             persisted.Path,
		DocumentID:       persisted.DocumentID,
		StoreTarget:      persisted.StoreTarget,
		Stored:           persisted.Stored,
		StoreError:       persisted.StoreError,
	}, nil
}

func (h *Handler) stage(ctx context.Context, taskType string, fn func(context.Context) error) error {
	ctx, span := h.obs.StartSpan(ctx, taskType, nil)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	metrics.StageDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
	h.obs.RecordStage(ctx, taskType, status, elapsed)
	return err
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	err := camunda.ExecuteWithRetry(ctx, nil, "complete job", func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().
			JobKey(job.Key).
			VariablesFromObject(output)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"runId":   output.RunID,
		"entries": output.Entries,
	})
}
