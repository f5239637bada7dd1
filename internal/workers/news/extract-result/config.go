package extractresult

import "grokipedia-x/internal/common/config"

type Config struct {
	// Policy is one of config.ExtractionArray, ExtractionBalanced or ExtractionRaw.
	Policy       string
	StrictSchema bool
}

func NewConfig(app *config.Config) *Config {
	return &Config{
		Policy:       app.Output.Extraction,
		StrictSchema: app.Output.StrictSchema,
	}
}
