package persistsummary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/metrics"
)

const TaskType = "persist-summary"

type Handler struct {
	config    *Config
	openStore StoreOpener
	notifier  Notifier
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler builds the sink. openStore and notifier may be nil.
func NewHandler(config *Config, openStore StoreOpener, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		openStore: openStore,
		notifier:  notifier,
		logger:    log.With(map[string]interface{}{"taskType": TaskType}),
		now:       time.Now,
	}
}

// Execute writes the summary file, then upserts the record into the store.
// Only the file write can fail the run.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	path := h.config.Path
	if path == "" {
		path = DefaultPath
	}
	if err := writeFile(path, input.Record); err != nil {
		return nil, apperrors.NewFilePersistFailedError(path, err)
	}
	h.logger.Info("summary file written", map[string]interface{}{"path": path})

	out := &Output{Path: path}
	if h.openStore != nil {
		out.DocumentID = DocumentID(h.config.DocumentID, input.Record.Model, h.now())
		h.upsert(ctx, input, out)
	}
	if h.notifier != nil {
		h.notify(ctx, input, out)
	}
	return out, nil
}

func (h *Handler) upsert(ctx context.Context, input *Input, out *Output) {
	backend := h.config.Backend
	store, err := h.openStore(ctx)
	if err == nil {
		backend = store.Backend()
		out.StoreTarget = store.Target()
		err = store.Upsert(ctx, out.DocumentID, input.Record)
		if cerr := store.Close(ctx); cerr != nil {
			h.logger.Warn("store close failed", map[string]interface{}{"error": cerr.Error()})
		}
	}

	if err != nil {
		storeErr := apperrors.NewStorePersistFailedError(backend, err)
		metrics.StoreUpserts.WithLabelValues(backend, "failure").Inc()
		h.logger.Error("summary upsert failed", map[string]interface{}{
			"backend":    backend,
			"documentId": out.DocumentID,
			"error":      storeErr.Error(),
		})
		out.StoreError = storeErr.Error()
		return
	}

	metrics.StoreUpserts.WithLabelValues(backend, "success").Inc()
	out.Stored = true
	h.logger.Info("summary upserted", map[string]interface{}{
		"backend":    backend,
		"target":     out.StoreTarget,
		"documentId": out.DocumentID,
	})
}

func (h *Handler) notify(ctx context.Context, input *Input, out *Output) {
	id, err := h.notifier.Notify(ctx, Notification{
		RunID:      input.RunID,
		DocumentID: out.DocumentID,
		Model:      input.Record.Model,
		Entries:    input.Record.EntryCount(),
		Path:       out.Path,
		Stored:     out.Stored,
	})
	if err != nil {
		notifyErr := apperrors.NewNotificationSendFailedError("sns", err)
		h.logger.Warn("summary notification failed", map[string]interface{}{"error": notifyErr.Error()})
		out.NotificationError = notifyErr.Error()
		return
	}
	out.NotificationID = id
}

// writeFile replaces path with the two-space indented record. The content is
// staged next to the target and renamed into place.
func writeFile(path string, record interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
