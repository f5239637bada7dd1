package extractresult

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"grokipedia-x/internal/common/config"
	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/validation"
	"grokipedia-x/internal/models"
)

const TaskType = "extract-result"

type Handler struct {
	config    *Config
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(cfg *Config, log logger.Logger) (*Handler, error) {
	switch cfg.Policy {
	case "":
		cfg.Policy = config.ExtractionArray
	case config.ExtractionArray, config.ExtractionBalanced, config.ExtractionRaw:
	default:
		return nil, fmt.Errorf("unknown extraction policy %q", cfg.Policy)
	}

	validator, err := validation.NewValidator(validation.SummaryEntriesSchema)
	if err != nil {
		return nil, err
	}

	return &Handler{
		config:    cfg,
		validator: validator,
		logger:    log.With(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Execute turns the aggregated completion text into the summary record.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.Policy == config.ExtractionRaw {
		return &Output{
			Record:  models.SummaryRecord{Model: input.Model, Summary: input.Summary},
			Entries: -1,
		}, nil
	}

	var (
		slice string
		found bool
	)
	if h.config.Policy == config.ExtractionBalanced {
		slice, found = balancedSlice(input.Summary)
	} else {
		slice, found = outerSlice(input.Summary)
	}
	if !found {
		return nil, apperrors.NewExtractionDelimitersMissingError()
	}

	parsed, err := models.DecodeJSON([]byte(slice))
	if err != nil {
		return nil, apperrors.NewExtractionInvalidJSONError(err)
	}
	entries, ok := parsed.([]interface{})
	if !ok {
		return nil, apperrors.NewExtractionNotArrayError(kindOf(parsed))
	}

	out := &Output{
		Record:  models.SummaryRecord{Model: input.Model, Summary: entries},
		Entries: len(entries),
	}

	violations, err := h.checkSchema(entries)
	if err != nil {
		h.logger.Warn("entry schema check could not run", map[string]interface{}{"error": err.Error()})
	}
	if len(violations) > 0 {
		if h.config.StrictSchema {
			return nil, apperrors.NewExtractionSchemaInvalidError(violations)
		}
		h.logger.Warn("summary entries do not match the entry schema", map[string]interface{}{
			"violations": strings.Join(violations, "; "),
		})
		out.SchemaViolations = violations
	}

	h.logger.Info("summary extracted", map[string]interface{}{
		"policy":  h.config.Policy,
		"entries": len(entries),
	})
	return out, nil
}

func (h *Handler) checkSchema(entries []interface{}) ([]string, error) {
	result, err := h.validator.Validate(entries)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		return nil, nil
	}
	return result.GetErrorMessages(), nil
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "an object"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
