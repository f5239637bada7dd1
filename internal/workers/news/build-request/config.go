package buildrequest

import (
	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/models"
)

type Config struct {
	Model string
	Tools []string
}

func NewConfig(app *config.Config) *Config {
	return &Config{
		Model: app.Completion.Model,
		Tools: []string{models.ToolWebSearch, models.ToolXSearch, models.ToolCodeExecution},
	}
}
