// internal/common/logger/logger.go
package logger

import (
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger defines the minimal logging interface used across pipeline stages.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// New builds a zap logger. Format "json" selects the production encoder,
// anything else the human-readable console encoder. Output goes to stderr so
// stdout stays reserved for run artifacts.
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// zapWrapper adapts zap.Logger to the Logger interface.
type zapWrapper struct {
	l *zap.Logger
}

func (z *zapWrapper) Debug(msg string, fields map[string]interface{}) {
	z.l.Debug(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Info(msg string, fields map[string]interface{}) {
	z.l.Info(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Warn(msg string, fields map[string]interface{}) {
	z.l.Warn(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Error(msg string, fields map[string]interface{}) {
	z.l.Error(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) WithFields(fields map[string]interface{}) Logger {
	return &zapWrapper{l: z.l.With(mapToZapFields(fields)...)}
}

func (z *zapWrapper) WithError(err error) Logger {
	if err == nil {
		return z
	}
	return &zapWrapper{l: z.l.With(zap.Error(redactError{err}))}
}

// With is an alias for WithFields.
func (z *zapWrapper) With(fields map[string]interface{}) Logger {
	return z.WithFields(fields)
}

func mapToZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if isSecretKey(k) {
			out = append(out, zap.String(k, redacted))
			continue
		}
		switch x := v.(type) {
		case error:
			out = append(out, zap.NamedError(k, redactError{x}))
		case string:
			out = append(out, zap.String(k, RedactString(x)))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

const redacted = "[REDACTED]"

var (
	secretKeys = map[string]struct{}{
		"apikey": {}, "api_key": {}, "bearer": {}, "bearer_token": {}, "bearertoken": {},
		"authorization": {}, "password": {}, "token": {}, "uri": {}, "mongo_uri": {},
	}
	reBearer   = regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9._~+/=%-]+`)
	reURLCreds = regexp.MustCompile(`(://[^:/@\s]+:)[^@\s]+@`)
)

func isSecretKey(k string) bool {
	_, ok := secretKeys[strings.ToLower(k)]
	return ok
}

// RedactString masks bearer tokens and credentials embedded in URLs.
func RedactString(s string) string {
	s = reBearer.ReplaceAllString(s, "${1}"+redacted)
	return reURLCreds.ReplaceAllString(s, "${1}"+redacted+"@")
}

type redactError struct{ err error }

func (e redactError) Error() string { return RedactString(e.err.Error()) }

func (e redactError) Unwrap() error { return e.err }

// NewZapAdapter wraps an existing *zap.Logger to implement the Logger interface
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapWrapper{l: l}
}

// NewTestLogger creates a Logger suitable for testing that outputs to testing.T
func NewTestLogger(t testing.TB) Logger {
	return &zapWrapper{l: zaptest.NewLogger(t)}
}
