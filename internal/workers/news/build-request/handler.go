package buildrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "grokipedia-x/internal/common/errors"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/models"
)

const TaskType = "build-request"

const systemPrompt = "You are the real time pipeline agent for breaking X news to Grokipedia. " +
	"Based on the breaking news data provided, determine what are the concerning organizations or individuals involved " +
	"and find an existing Grokipedia article that matches the context of that same organization or individual."

const userPromptFormat = "Here is the JSON payload returned by the X News endpoint: %s. " +
	"You are the real time pipeline agent for breaking X news to Grokipedia. " +
	"Based on the entire JSON, the breaking news data provided, determine what are the concerning organizations or individuals involved " +
	"and find an existing Grokipedia article that matches the context of that same organization or individual. " +
	"For each entry return an object with the fields grokipedia_url (the url of the Grokipedia page, if it exists), " +
	"suggested_edit (your suggested edit based on the news in the payload) and " +
	"original_text (the ORIGINAL TEXT within that Grokipedia page that is subject to be changed and updated). " +
	"Use your tools to go to the URL of the Grokipedia page if it exists in order to fetch REAL text from the article " +
	"that is the MOST relevant to the suggested edit from the news claim. Word for word, that will be the ORIGINAL TEXT. " +
	"Make sure the JSON has inner objects of multiple entries for this which each have the fields that were requested. %s"

const emptyDirective = "If payload.data is empty, return an empty JSON array (just [])."

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute assembles the completion request for one attempt.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Payload == nil {
		return nil, apperrors.NewRequestBuildFailedError(errors.New("payload is required"))
	}

	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = strings.TrimSpace(h.config.Model)
	}
	if model == "" {
		return nil, apperrors.NewRequestBuildFailedError(errors.New("model identifier is empty"))
	}

	compact, err := input.Payload.Compact()
	if err != nil {
		return nil, apperrors.NewRequestBuildFailedError(fmt.Errorf("serialize payload: %w", err))
	}

	expected := input.Payload.ExpectedEntries()
	tools := make([]string, len(h.config.Tools))
	copy(tools, h.config.Tools)

	req := models.CompletionRequest{
		Model:             model,
		System:            systemPrompt,
		User:              fmt.Sprintf(userPromptFormat, compact, EntryDirective(expected)),
		Tools:             tools,
		ParallelToolCalls: true,
	}

	h.logger.Debug("completion request built", map[string]interface{}{
		"model":           model,
		"expectedEntries": expected,
		"promptBytes":     len(req.User),
	})

	return &Output{Request: req, ExpectedEntries: expected}, nil
}

// EntryDirective states the output cardinality for a payload with n items.
func EntryDirective(n int) string {
	if n <= 0 {
		return emptyDirective
	}
	return fmt.Sprintf("Return a JSON array (not wrapped in an object) with at most %d objects, "+
		"each corresponding to one payload.data[i] in order. "+
		"Make a best-effort attempt to produce an entry for every payload item (use tools/web search if needed) "+
		"and only skip an item if, after searching, no relevant Grokipedia page exists. "+
		"When you skip, omit the entry entirely instead of outputting null or empty fields. "+
		"Do not combine multiple payload items into one entry.", n)
}
