// Package errors provides the standardized error taxonomy of the summarization pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"

	ErrCodeRequestBuildFailed       ErrorCode = "REQUEST_BUILD_FAILED"
	ErrCodeCompletionGatewayTimeout ErrorCode = "COMPLETION_GATEWAY_TIMEOUT"
	ErrCodeCompletionFailed         ErrorCode = "COMPLETION_FAILED"
	ErrCodeCompletionEmpty          ErrorCode = "COMPLETION_EMPTY"

	ErrCodeExtractionDelimitersMissing ErrorCode = "EXTRACTION_DELIMITERS_MISSING"
	ErrCodeExtractionInvalidJSON       ErrorCode = "EXTRACTION_INVALID_JSON"
	ErrCodeExtractionNotArray          ErrorCode = "EXTRACTION_NOT_ARRAY"
	ErrCodeExtractionSchemaInvalid     ErrorCode = "EXTRACTION_SCHEMA_INVALID"

	ErrCodeFilePersistFailed  ErrorCode = "FILE_PERSIST_FAILED"
	ErrCodeStorePersistFailed ErrorCode = "STORE_PERSIST_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidJobInput        ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches another *StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewConfigurationMissingError reports a required setting absent at startup.
func NewConfigurationMissingError(key, hint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   fmt.Sprintf("Missing %s", key),
		Details:   hint,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"key": key},
	}
}

// NewFetchFailedError creates a non-retryable search fetch error.
func NewFetchFailedError(status int, err error) *StandardError {
	e := newError(ErrCodeFetchFailed, "Search payload fetch failed", err, false)
	if status > 0 {
		e.Metadata = map[string]interface{}{"status": status}
	}
	return e
}

// NewRequestBuildFailedError wraps a payload serialization failure.
func NewRequestBuildFailedError(err error) *StandardError {
	return newError(ErrCodeRequestBuildFailed, "Completion request could not be built", err, false)
}

// NewCompletionGatewayTimeoutError marks the upstream gateway timeout that
// aborts an agentic stream before its first chunk. It is the only retryable
// completion failure.
func NewCompletionGatewayTimeoutError(err error) *StandardError {
	return newError(ErrCodeCompletionGatewayTimeout,
		"Completion stream aborted (gateway timeout before first chunk)", err, true)
}

// NewCompletionFailedError creates a fatal completion-service error.
func NewCompletionFailedError(err error) *StandardError {
	return newError(ErrCodeCompletionFailed, "Completion stream failed", err, false)
}

// NewCompletionEmptyError reports a stream that ended without any content.
func NewCompletionEmptyError() *StandardError {
	return newError(ErrCodeCompletionEmpty, "Completion response missing completion text", nil, false)
}

// NewExtractionDelimitersMissingError reports a summary with no '['/']' pair.
func NewExtractionDelimitersMissingError() *StandardError {
	return newError(ErrCodeExtractionDelimitersMissing, "Summary missing JSON array delimiters", nil, false)
}

// NewExtractionInvalidJSONError carries the parser message of the failed slice.
func NewExtractionInvalidJSONError(err error) *StandardError {
	return newError(ErrCodeExtractionInvalidJSON, "Summary is not a valid JSON array", err, false)
}

// NewExtractionNotArrayError reports a slice that parsed to a non-array value.
func NewExtractionNotArrayError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionNotArray,
		Message:   "Summary must be a JSON array",
		Details:   fmt.Sprintf("parsed value is %s", kind),
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionSchemaInvalidError lists summary entries that failed the entry schema.
func NewExtractionSchemaInvalidError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionSchemaInvalid,
		Message:   "Summary entries do not match the entry schema",
		Details:   strings.Join(violations, "; "),
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"violations": len(violations)},
	}
}

// NewFilePersistFailedError creates a fatal file write error.
func NewFilePersistFailedError(path string, err error) *StandardError {
	e := newError(ErrCodeFilePersistFailed, "Summary file could not be written", err, false)
	e.Metadata = map[string]interface{}{"path": path}
	return e
}

// NewStorePersistFailedError creates the non-fatal document store error.
func NewStorePersistFailedError(backend string, err error) *StandardError {
	e := newError(ErrCodeStorePersistFailed, "Summary store upsert failed", err, true)
	e.Metadata = map[string]interface{}{"backend": backend}
	return e
}

// NewNotificationSendFailedError creates the non-fatal notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Summary notification failed", err, true)
	e.Metadata = map[string]interface{}{"channel": channel}
	return e
}

// NewInvalidJobInputError reports job variables that could not be decoded.
func NewInvalidJobInputError(err error) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Job variables could not be parsed", err, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the number of job-level retries for an error code.
// Only infrastructure-shaped failures are worth a second run of the job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCompletionGatewayTimeout:
		return 2
	case ErrCodeFetchFailed, ErrCodeCompletionFailed:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable && stdErr.Code != ErrCodeFetchFailed && stdErr.Code != ErrCodeCompletionFailed {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: retries > 0,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds the first *StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.HasPrefix(codeStr, "FETCH"):
		return "FETCH"
	case strings.HasPrefix(codeStr, "REQUEST") || strings.HasPrefix(codeStr, "COMPLETION"):
		return "COMPLETION"
	case strings.HasPrefix(codeStr, "EXTRACTION"):
		return "EXTRACTION"
	case strings.HasSuffix(codeStr, "PERSIST_FAILED"):
		return "PERSISTENCE"
	case strings.HasPrefix(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// ExitCode maps a fatal error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetErrorCategory(CodeOf(err)) {
	case "CONFIGURATION":
		return 2
	case "FETCH":
		return 3
	case "COMPLETION":
		return 4
	case "EXTRACTION":
		return 5
	case "PERSISTENCE":
		return 6
	default:
		return 1
	}
}
