package fetchpayload

import (
	"time"

	"grokipedia-x/internal/common/config"
)

type Config struct {
	BaseURL     string
	BearerToken string
	UserAgent   string
	MaxResults  int
	Timeout     time.Duration
	CacheTTL    time.Duration
}

func NewConfig(app *config.Config) *Config {
	return &Config{
		BaseURL:     app.Search.BaseURL,
		BearerToken: app.Search.BearerToken,
		UserAgent:   app.App.UserAgent,
		MaxResults:  app.Search.MaxResults,
		Timeout:     config.GetDuration(app.Search.Timeout),
		CacheTTL:    time.Duration(app.Cache.TTL) * time.Second,
	}
}
