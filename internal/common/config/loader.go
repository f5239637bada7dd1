package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "grokipedia-x/internal/common/errors"
)

// legacyEnv lists the bare environment names accepted next to the
// automatic SECTION_KEY names.
var legacyEnv = map[string]string{
	"search.bearer_token":           "BEARER",
	"completion.api_key":            "XAI_API_KEY",
	"completion.model":              "XAI_MODEL",
	"completion.base_url":           "XAI_BASE_URL",
	"store.mongo.uri":               "MONGO_URI",
	"store.mongo.database":          "MONGO_DB",
	"store.mongo.collection":        "MONGO_COLLECTION",
	"store.elasticsearch.url":       "ELASTICSEARCH_URL",
	"store.postgres.url":            "DATABASE_URL",
	"cache.redis.address":           "REDIS_ADDR",
	"notifications.sns.topic_arn":   "SNS_TOPIC_ARN",
	"notifications.sns.region":      "AWS_REGION",
	"camunda.broker_address":        "CAMUNDA_BROKER_ADDRESS",
	"observability.jaeger_endpoint": "JAEGER_ENDPOINT",
	"logging.level":                 "LOG_LEVEL",
	"app.environment":               "APP_ENVIRONMENT",
}

// Load assembles the configuration once from .env, config.yaml,
// config.<APP_ENVIRONMENT>.yaml and the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName("config." + v.GetString("app.environment"))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for key, name := range legacyEnv {
		_ = v.BindEnv(key, envName(key), name)
	}
	return v
}

func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "grokipedia-x")
	v.SetDefault("app.version", "0.1")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.user_agent", "grokipedia-x/0.1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("search.base_url", "https://api.x.com")
	v.SetDefault("search.bearer_token", "")
	v.SetDefault("search.query", "government")
	v.SetDefault("search.preset", "")
	v.SetDefault("search.max_results", 100)
	v.SetDefault("search.timeout", 30000)

	v.SetDefault("completion.base_url", "https://api.x.ai/v1")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.model", "grok-4-fast-non-reasoning")
	v.SetDefault("completion.max_attempts", 3)
	v.SetDefault("completion.timeout", 0)

	v.SetDefault("output.path", "summary.json")
	v.SetDefault("output.extraction", ExtractionArray)
	v.SetDefault("output.strict_schema", false)
	v.SetDefault("output.document_id", DocumentIDTimestamped)

	v.SetDefault("store.backend", BackendMongo)
	v.SetDefault("store.timeout", 10000)
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "grokipedia")
	v.SetDefault("store.mongo.collection", "summaries")
	v.SetDefault("store.elasticsearch.url", "")
	v.SetDefault("store.elasticsearch.username", "")
	v.SetDefault("store.elasticsearch.password", "")
	v.SetDefault("store.elasticsearch.index", "summaries")
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("store.postgres.table", "summaries")
	v.SetDefault("store.postgres.max_connections", 5)
	v.SetDefault("store.postgres.max_idle", 1)

	v.SetDefault("cache.redis.address", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.ttl", 300)

	v.SetDefault("notifications.sns.topic_arn", "")
	v.SetDefault("notifications.sns.region", "")

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 1)
	v.SetDefault("camunda.timeout", 600000)
	v.SetDefault("camunda.request_timeout", 30000)

	v.SetDefault("observability.service_name", "grokipedia-x")
	v.SetDefault("observability.metrics_addr", ":8080")
	v.SetDefault("observability.jaeger_endpoint", "")
}

// loadEnvFile loads the first .env found in the working directory, its
// parents, or the module root.
func loadEnvFile() string {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// applyDefaults fills values that depend on other settings.
func applyDefaults(cfg *Config) {
	if cfg.Store.Elasticsearch.URL == "" && len(cfg.Store.Elasticsearch.Addresses) > 0 {
		cfg.Store.Elasticsearch.URL = cfg.Store.Elasticsearch.Addresses[0]
	}
	if cfg.Completion.MaxAttempts < 1 {
		cfg.Completion.MaxAttempts = 1
	}
	if cfg.Search.MaxResults <= 0 || cfg.Search.MaxResults > 500 {
		cfg.Search.MaxResults = 100
	}
	cfg.Search.BaseURL = strings.TrimRight(cfg.Search.BaseURL, "/")
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Output.Extraction = strings.ToLower(cfg.Output.Extraction)
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.Camunda.Timeout
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig rejects a run before any network activity.
func validateConfig(cfg *Config) error {
	if cfg.Search.BearerToken == "" {
		return apperrors.NewConfigurationMissingError("BEARER", "set BEARER or search.bearer_token to an X API bearer token")
	}
	if cfg.Completion.APIKey == "" {
		return apperrors.NewConfigurationMissingError("XAI_API_KEY", "set XAI_API_KEY or completion.api_key")
	}

	switch cfg.Output.Extraction {
	case ExtractionArray, ExtractionBalanced, ExtractionRaw:
	default:
		return fmt.Errorf("invalid configuration: output.extraction %q must be one of array, balanced, raw", cfg.Output.Extraction)
	}
	switch cfg.Output.DocumentID {
	case DocumentIDTimestamped, DocumentIDModel:
	default:
		return fmt.Errorf("invalid configuration: output.document_id %q must be timestamped or model", cfg.Output.DocumentID)
	}
	switch cfg.Store.Backend {
	case BackendMongo, BackendElasticsearch, BackendPostgres:
	default:
		return fmt.Errorf("invalid configuration: store.backend %q must be mongo, elasticsearch or postgres", cfg.Store.Backend)
	}
	return nil
}

// ValidateWorker checks the settings only job-worker mode needs.
func ValidateWorker(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return apperrors.NewConfigurationMissingError("CAMUNDA_BROKER_ADDRESS", "set CAMUNDA_BROKER_ADDRESS or camunda.broker_address")
	}
	return nil
}
