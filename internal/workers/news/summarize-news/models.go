package summarizenews

type Input struct {
	Query  string `json:"query,omitempty"`
	Preset string `json:"preset,omitempty"`
	Model  string `json:"model,omitempty"`
}

type Output struct {
	RunID            string   `json:"runId"`
	Query            string   `json:"query"`
	Model            string   `json:"model"`
	PayloadCached    bool     `json:"payloadCached"`
	Attempts         int      `json:"attempts"`
	Entries          int      `json:"entries"`
	SchemaViolations []string `json:"schemaViolations,omitempty"`
	Path             string   `json:"path"`
	DocumentID       string   `json:"documentId,omitempty"`
	StoreTarget      string   `json:"storeTarget,omitempty"`
	Stored           bool     `json:"stored"`
	StoreError       string   `json:"storeError,omitempty"`
}
