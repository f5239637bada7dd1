package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Search        SearchConfig            `mapstructure:"search"`
	Completion    CompletionConfig        `mapstructure:"completion"`
	Output        OutputConfig            `mapstructure:"output"`
	Store         StoreConfig             `mapstructure:"store"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	UserAgent   string `mapstructure:"user_agent"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// --- Pipeline stages ---

// SearchConfig configures the recent/all search fetch.
type SearchConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	BearerToken string `mapstructure:"bearer_token"`
	Query       string `mapstructure:"query"`
	Preset      string `mapstructure:"preset"`
	MaxResults  int    `mapstructure:"max_results"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// CompletionConfig configures the tool-augmented completion stream.
type CompletionConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds, 0 disables
}

const (
	ExtractionArray    = "array"
	ExtractionBalanced = "balanced"
	ExtractionRaw      = "raw"

	DocumentIDTimestamped = "timestamped"
	DocumentIDModel       = "model"
)

// OutputConfig controls extraction and the summary file.
type OutputConfig struct {
	Path         string `mapstructure:"path"`
	Extraction   string `mapstructure:"extraction"`
	StrictSchema bool   `mapstructure:"strict_schema"`
	DocumentID   string `mapstructure:"document_id"`
}

const (
	BackendMongo         = "mongo"
	BackendElasticsearch = "elasticsearch"
	BackendPostgres      = "postgres"
)

// StoreConfig selects and configures the best-effort summary store.
type StoreConfig struct {
	Backend       string              `mapstructure:"backend"`
	Timeout       int                 `mapstructure:"timeout"` // milliseconds
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
}

// Enabled reports whether the selected backend has a connection configured.
func (s StoreConfig) Enabled() bool {
	switch s.Backend {
	case BackendElasticsearch:
		return s.Elasticsearch.GetURL() != ""
	case BackendPostgres:
		return s.Postgres.URL != ""
	default:
		return s.Mongo.URI != ""
	}
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	URL       string   `mapstructure:"url"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// GetURL returns the URL field or the first address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	Table          string `mapstructure:"table"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

// CacheConfig enables the Redis payload cache when Redis.Address is set.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
	TTL   int         `mapstructure:"ttl"` // seconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds the optional completion notification target.
type NotificationConfig struct {
	SNS struct {
		TopicARN string `mapstructure:"topic_arn"`
		Region   string `mapstructure:"region"`
	} `mapstructure:"sns"`
}

// --- Worker mode ---

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// ObservabilityConfig configures the metrics endpoint and trace export.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to
// the camunda section.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
	}
}
