package persistsummary

import (
	"time"

	"grokipedia-x/internal/common/config"
)

const (
	DefaultPath = "summary.json"

	// FallbackModelID names documents whose record carries no model.
	FallbackModelID = "latest-summary"
)

type Config struct {
	Path         string
	DocumentID   string
	Backend      string
	StoreTimeout time.Duration
}

func NewConfig(app *config.Config) *Config {
	path := app.Output.Path
	if path == "" {
		path = DefaultPath
	}
	return &Config{
		Path:         path,
		DocumentID:   app.Output.DocumentID,
		Backend:      app.Store.Backend,
		StoreTimeout: config.GetDuration(app.Store.Timeout),
	}
}
