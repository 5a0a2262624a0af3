package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for comment-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional clause-set cache)
	Redis RedisConfig `yaml:"redis"`

	// Analysis tool endpoints
	Tools ToolsConfig `yaml:"tools"`

	// Pipeline thresholds and queue behavior
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"neetimanthan"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"neetimanthan"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis configuration for the clause-set cache.
// Leave Host empty to run without a cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// ToolsConfig holds base URLs and timeouts for the four analysis services.
// Summarization gets a longer timeout because it is the heaviest call.
type ToolsConfig struct {
	IngestURL     string `yaml:"ingest_url" env:"INGEST_TOOL_URL" env-default:"http://localhost:8001"`
	ClassifyURL   string `yaml:"classify_url" env:"CLASSIFY_TOOL_URL" env-default:"http://localhost:8002"`
	ClauseLinkURL string `yaml:"clause_link_url" env:"CLAUSE_LINKER_URL" env-default:"http://localhost:8003"`
	SummarizeURL  string `yaml:"summarize_url" env:"SUMMARIZE_TOOL_URL" env-default:"http://localhost:8004"`

	IngestTimeout    time.Duration `yaml:"ingest_timeout" env:"INGEST_TIMEOUT" env-default:"30s"`
	ClassifyTimeout  time.Duration `yaml:"classify_timeout" env:"CLASSIFY_TIMEOUT" env-default:"30s"`
	LinkTimeout      time.Duration `yaml:"link_timeout" env:"LINK_TIMEOUT" env-default:"30s"`
	SummarizeTimeout time.Duration `yaml:"summarize_timeout" env:"SUMMARIZE_TIMEOUT" env-default:"60s"`
}

// PipelineConfig holds processing thresholds.
type PipelineConfig struct {
	// ConfidenceThreshold is the quality gate: classifications at or above it
	// proceed to summarization, below it an audit record is emitted.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD" env-default:"0.7"`

	// SemanticThreshold is the minimum cosine similarity for the semantic
	// clause-linking tier.
	SemanticThreshold float64 `yaml:"semantic_threshold" env:"SEMANTIC_THRESHOLD" env-default:"0.3"`

	// FuzzyThreshold is the minimum Jaccard similarity for the fuzzy
	// clause-linking tier.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" env:"FUZZY_THRESHOLD" env-default:"0.1"`

	// MaxClauseCandidates caps the candidate list returned by the linker.
	MaxClauseCandidates int `yaml:"max_clause_candidates" env:"MAX_CLAUSE_CANDIDATES" env-default:"5"`

	// DedupeSimilarity is the cosine similarity above which two comments are
	// considered duplicates by the deduplication job.
	DedupeSimilarity float64 `yaml:"dedupe_similarity" env:"DEDUPE_SIMILARITY" env-default:"0.92"`

	// QueueMaxRetries bounds queue-level retries of a whole Process call for
	// transient (non-business) failures.
	QueueMaxRetries int `yaml:"queue_max_retries" env:"QUEUE_MAX_RETRIES" env-default:"3"`

	// QueueConcurrency is the number of comments processed in parallel.
	QueueConcurrency int `yaml:"queue_concurrency" env:"QUEUE_CONCURRENCY" env-default:"4"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv reads configuration from environment variables only.
// Used by tests and deployments without a config file.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
