package summarizenews

import (
	"time"

	"grokipedia-x/internal/common/config"
)

type Config struct {
	// Timeout bounds one job in worker mode. CLI runs are bounded only by
	// the stage clients.
	Timeout time.Duration
}

func NewConfig(app *config.Config) *Config {
	wcfg := config.GetWorkerConfig(app, TaskType)
	return &Config{
		Timeout: config.GetDuration(wcfg.Timeout),
	}
}
