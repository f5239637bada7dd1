package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Chain(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := fmt.Errorf("extract: %w", NewExtractionInvalidJSONError(cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &StandardError{Code: ErrCodeExtractionInvalidJSON})
	assert.Equal(t, ErrCodeExtractionInvalidJSON, CodeOf(err))
	assert.Contains(t, err.Error(), "unexpected end of JSON input")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewCompletionGatewayTimeoutError(stderrors.New("504"))))
	assert.False(t, IsRetryable(NewCompletionFailedError(stderrors.New("401"))))
	assert.False(t, IsRetryable(NewCompletionEmptyError()))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{NewConfigurationMissingError("BEARER", ""), 2},
		{NewFetchFailedError(401, stderrors.New("unauthorized")), 3},
		{NewCompletionEmptyError(), 4},
		{NewRequestBuildFailedError(stderrors.New("x")), 4},
		{NewExtractionNotArrayError("object"), 5},
		{NewFilePersistFailedError("summary.json", stderrors.New("x")), 6},
		{stderrors.New("plain"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewCompletionGatewayTimeoutError(stderrors.New("504 Gateway Timeout")))
	assert.Equal(t, string(ErrCodeCompletionGatewayTimeout), bpmn.Code)
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 2, bpmn.Retries)

	bpmn = ConvertToBPMNError(NewExtractionDelimitersMissingError())
	assert.False(t, bpmn.Retryable)
	assert.Equal(t, 0, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	require.Contains(t, vars, "errorCode")
	assert.Equal(t, "EXTRACTION", GetErrorCategory(ErrCodeExtractionDelimitersMissing))
}
