package streamcompletion

import (
	"time"

	"grokipedia-x/internal/common/config"
)

const DefaultMaxAttempts = 3

type Config struct {
	BaseURL     string
	APIKey      string
	UserAgent   string
	MaxAttempts int
	Timeout     time.Duration
}

func NewConfig(app *config.Config) *Config {
	attempts := app.Completion.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	return &Config{
		BaseURL:     app.Completion.BaseURL,
		APIKey:      app.Completion.APIKey,
		UserAgent:   app.App.UserAgent,
		MaxAttempts: attempts,
		Timeout:     config.GetDuration(app.Completion.Timeout),
	}
}
