package fetchpayload

import "grokipedia-x/internal/models"

type Input struct {
	Query  string `json:"query,omitempty"`
	Preset string `json:"preset,omitempty"`
}

type Output struct {
	Payload *models.Payload `json:"payload"`
	Query   string          `json:"query"`
	URL     string          `json:"url"`
	Cached  bool            `json:"cached"`
}
