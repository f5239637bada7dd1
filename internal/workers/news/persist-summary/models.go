package persistsummary

import "grokipedia-x/internal/models"

type Input struct {
	Record models.SummaryRecord `json:"record"`
	RunID  string               `json:"runId,omitempty"`
}

type Output struct {
	Path       string `json:"path"`
	DocumentID string `json:"documentId,omitempty"`
	// StoreTarget describes where the record was upserted, e.g. a collection.
	StoreTarget       string `json:"storeTarget,omitempty"`
	Stored            bool   `json:"stored"`
	StoreError        string `json:"storeError,omitempty"`
	NotificationID    string `json:"notificationId,omitempty"`
	NotificationError string `json:"notificationError,omitempty"`
}

// Notification is published after a run's summary has been persisted.
type Notification struct {
	RunID      string `json:"runId,omitempty"`
	DocumentID string `json:"documentId"`
	Model      string `json:"model"`
	Entries    int    `json:"entries"`
	Path       string `json:"path"`
	Stored     bool   `json:"stored"`
}
