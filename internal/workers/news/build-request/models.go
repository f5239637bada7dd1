package buildrequest

import "grokipedia-x/internal/models"

type Input struct {
	Payload *models.Payload `json:"payload"`
	// Model overrides the configured model when set.
	Model string `json:"model,omitempty"`
}

type Output struct {
	Request         models.CompletionRequest `json:"request"`
	ExpectedEntries int                      `json:"expectedEntries"`
}
