package persistsummary

import (
	"strings"
	"time"

	"grokipedia-x/internal/common/config"
)

const documentIDTimeLayout = "20060102T150405.000Z"

// DocumentID derives the store key for a record. The timestamped policy
// yields <model>-<UTC time to the millisecond>; the model policy keeps one
// document per model and overwrites it on every run.
func DocumentID(policy, model string, now time.Time) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = FallbackModelID
	}
	if policy == config.DocumentIDModel {
		return model
	}
	return model + "-" + now.UTC().Format(documentIDTimeLayout)
}
