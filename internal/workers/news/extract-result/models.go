package extractresult

import "grokipedia-x/internal/models"

type Input struct {
	Summary string `json:"summary"`
	Model   string `json:"model"`
}

type Output struct {
	Record           models.SummaryRecord `json:"record"`
	Entries          int                  `json:"entries"`
	SchemaViolations []string             `json:"schemaViolations,omitempty"`
}
