package streamcompletion

import "grokipedia-x/internal/models"

type Input struct {
	Request models.CompletionRequest `json:"request"`
}

type Output struct {
	Summary  string `json:"summary"`
	Model    string `json:"model"`
	Attempts int    `json:"attempts"`
}
