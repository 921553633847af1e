// Package config loads recipefind settings from an optional .env file and
// RECIPEFIND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/recipefind/ai"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RECIPEFIND"

// Default values. Struct tag defaults on Config must match these.
const (
	DefaultDataDir          = "data"
	DefaultRawFileName      = "RAW_recipes.csv"
	DefaultFeedbackFileName = "feedback.csv"
	DefaultFeedbackDirName  = "feedback"
	DefaultAddr             = ":5000"
	DefaultTopK             = 12
	DefaultMinOverlap       = 0
	DefaultMaxRecipes       = 0
	DefaultEmbeddingBackend = ai.BackendOpenAI
	DefaultEmbeddingHost    = "http://localhost:11434/v1"
	DefaultEmbeddingModel   = "all-minilm"
	DefaultModelDir         = "models"
	DefaultEmbedTimeout     = 10 * time.Second
	DefaultBatchSize        = 256
	DefaultWorkers          = 0 // half the CPUs
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = time.Second
	DefaultFeedbackStore    = FeedbackStoreCSV
	DefaultCORSOrigins      = "*"
	DefaultLogLevel         = "info"

	// MaxTopK is the largest result size the candidate pool can serve.
	MaxTopK = 200
)

// Feedback store kinds.
const (
	FeedbackStoreCSV    = "csv"
	FeedbackStoreBadger = "badger"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all settings.
type Config struct {
	// DataDir holds the index, the raw file and the feedback log.
	// Env: RECIPEFIND_DATA_DIR (default: data)
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// RawFile is the raw recipe CSV.
	// Env: RECIPEFIND_RAW_FILE
	// Default: {data_dir}/RAW_recipes.csv
	RawFile string `envconfig:"RAW_FILE"`

	// Addr is the HTTP listen address.
	// Env: RECIPEFIND_ADDR (default: :5000)
	Addr string `envconfig:"ADDR" default:":5000"`

	// TopK is the number of results per query.
	// Env: RECIPEFIND_TOP_K (default: 12)
	TopK int `envconfig:"TOP_K" default:"12"`

	// MinOverlap is the minimum number of query tokens a result's
	// ingredients must contain. Zero disables the filter.
	// Env: RECIPEFIND_MIN_OVERLAP (default: 0)
	MinOverlap int `envconfig:"MIN_OVERLAP" default:"0"`

	// MaxRecipes caps the corpus at build time. Zero means unlimited.
	// Env: RECIPEFIND_MAX_RECIPES (default: 0)
	MaxRecipes int `envconfig:"MAX_RECIPES" default:"0"`

	// EmbeddingBackend is "openai" or "local".
	// Env: RECIPEFIND_EMBEDDING_BACKEND (default: openai)
	EmbeddingBackend string `envconfig:"EMBEDDING_BACKEND" default:"openai"`

	// EmbeddingHost is the OpenAI-compatible endpoint.
	// Env: RECIPEFIND_EMBEDDING_HOST (default: http://localhost:11434/v1)
	EmbeddingHost string `envconfig:"EMBEDDING_HOST" default:"http://localhost:11434/v1"`

	// EmbeddingModel is the model name sent to the endpoint.
	// Env: RECIPEFIND_EMBEDDING_MODEL (default: all-minilm)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"all-minilm"`

	// EmbeddingAPIKey is sent as the bearer token.
	// Env: RECIPEFIND_EMBEDDING_API_KEY
	EmbeddingAPIKey string `envconfig:"EMBEDDING_API_KEY"`

	// ModelDir holds local model files.
	// Env: RECIPEFIND_MODEL_DIR (default: models)
	ModelDir string `envconfig:"MODEL_DIR" default:"models"`

	// EmbedTimeout bounds query embedding.
	// Env: RECIPEFIND_EMBED_TIMEOUT (default: 10s)
	EmbedTimeout time.Duration `envconfig:"EMBED_TIMEOUT" default:"10s"`

	// BatchSize is the number of texts per build-time embedding call.
	// Env: RECIPEFIND_BATCH_SIZE (default: 256)
	BatchSize int `envconfig:"BATCH_SIZE" default:"256"`

	// Workers is the number of concurrent build batches. Zero picks half the CPUs.
	// Env: RECIPEFIND_WORKERS (default: 0)
	Workers int `envconfig:"WORKERS" default:"0"`

	// MaxRetries is the number of attempts per build batch.
	// Env: RECIPEFIND_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// RetryDelay is the base backoff between attempts.
	// Env: RECIPEFIND_RETRY_DELAY (default: 1s)
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`

	// FeedbackStore is "csv" or "badger".
	// Env: RECIPEFIND_FEEDBACK_STORE (default: csv)
	FeedbackStore string `envconfig:"FEEDBACK_STORE" default:"csv"`

	// CORSOrigins is a comma-separated list of allowed origins.
	// Env: RECIPEFIND_CORS_ORIGINS (default: *)
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// LogLevel is debug, info, warn or error.
	// Env: RECIPEFIND_LOG_LEVEL (default: info)
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads envFile (if non-empty and present) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := LoadDotEnv(envFile); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return LoadFromEnv()
}

// LoadFromEnv reads RECIPEFIND_* variables.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is in range.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data dir must be set"))
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		errs = append(errs, fmt.Errorf("top k must be between 1 and %d, got %d", MaxTopK, c.TopK))
	}
	if c.MinOverlap < 0 {
		errs = append(errs, fmt.Errorf("min overlap must not be negative, got %d", c.MinOverlap))
	}
	if c.MaxRecipes < 0 {
		errs = append(errs, fmt.Errorf("max recipes must not be negative, got %d", c.MaxRecipes))
	}
	if c.EmbedTimeout < 0 {
		errs = append(errs, fmt.Errorf("embed timeout must not be negative, got %s", c.EmbedTimeout))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max retries must be positive, got %d", c.MaxRetries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry delay must not be negative, got %s", c.RetryDelay))
	}
	switch strings.ToLower(c.FeedbackStore) {
	case FeedbackStoreCSV, FeedbackStoreBadger:
	default:
		errs = append(errs, fmt.Errorf("unknown feedback store %q", c.FeedbackStore))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// RawPath returns the raw recipe CSV path.
func (c Config) RawPath() string {
	if c.RawFile != "" {
		return c.RawFile
	}
	return filepath.Join(c.DataDir, DefaultRawFileName)
}

// FeedbackPath returns the CSV feedback log path.
func (c Config) FeedbackPath() string {
	return filepath.Join(c.DataDir, DefaultFeedbackFileName)
}

// FeedbackDBPath returns the badger feedback store directory.
func (c Config) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, DefaultFeedbackDirName)
}

// AIConfig returns the normalized embedding provider settings.
func (c Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithBackend(c.EmbeddingBackend),
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithModelDir(c.ModelDir),
	}
	if c.EmbeddingAPIKey != "" {
		opts = append(opts, ai.WithAPIKey(c.EmbeddingAPIKey))
	}
	cfg := ai.NewConfig(opts...)
	cfg.Normalize()
	return cfg
}

// ParseLogLevel accepts debug, info, warn or error in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
