// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (LECTERN_ prefix, runtime override)
//  2. Config file (./lectern.yaml or ~/.lectern/lectern.yaml)
//  3. Default values
//
// Validation happens once at load time and is deliberately strict: a service
// that starts with a broken retrieval configuration (most notably a
// non-positive max_results) silently answers every question with "no relevant
// content", so Load refuses to return such a configuration at all.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checkable with errors.Is.
var (
	// ErrInvalidMaxResults indicates max_results is not a positive integer.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidChunkSize indicates chunk_size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates chunk_overlap is negative or >= chunk_size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxHistory indicates max_history is negative.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidMaxToolRounds indicates max_tool_rounds is not positive.
	ErrInvalidMaxToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidSimilarity indicates min_course_similarity is outside [0, 1].
	ErrInvalidSimilarity = errors.New("invalid minimum course similarity")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidProviderTimeout indicates the provider timeout is not positive.
	ErrInvalidProviderTimeout = errors.New("invalid provider timeout")
)

// Defaults for the retrieval pipeline. ChunkSize/ChunkOverlap are measured in
// characters; MaxHistory counts user/assistant exchanges, not single turns.
const (
	DefaultChunkSize           = 800
	DefaultChunkOverlap        = 100
	DefaultMaxResults          = 5
	DefaultMaxHistory          = 2
	DefaultMaxToolRounds       = 2
	DefaultMinCourseSimilarity = 0.5
	DefaultProviderTimeout     = 60 * time.Second

	// DefaultEmbedderModel is the Gemini embedder used for both chunk and
	// query embeddings. Its output is truncated to 768 dimensions to match
	// the pgvector schema; see db/migrations.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultModelName is provider-qualified, as Genkit expects.
	DefaultModelName = "googleai/gemini-2.5-flash"
)

// Config stores application configuration.
// A Config is immutable after Load; components receive it by reference at
// construction and never re-read ambient state.
type Config struct {
	// AI provider configuration
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`

	// Retrieval pipeline configuration
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	MaxResults          int     `mapstructure:"max_results"`
	MinCourseSimilarity float32 `mapstructure:"min_course_similarity"`

	// Conversation configuration. MaxHistory of 0 disables history
	// retention; every question is answered without prior context.
	MaxHistory    int `mapstructure:"max_history"`
	MaxToolRounds int `mapstructure:"max_tool_rounds"`

	// Provider call bound. A stuck embedding or generation call fails the
	// query after this long instead of holding the request open.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Document ingestion
	DocsPath string `mapstructure:"docs_path"`

	// HTTP server
	Addr string `mapstructure:"addr"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// SlogLevel maps the configured log level name to a slog.Level.
// Unknown names fall back to info rather than failing startup.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
// The returned Config is already validated; callers never need to re-check.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("lectern")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(home, ".lectern"))

	setDefaults(v)

	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"config_name", "lectern.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("min_course_similarity", DefaultMinCourseSimilarity)

	v.SetDefault("max_history", DefaultMaxHistory)
	v.SetDefault("max_tool_rounds", DefaultMaxToolRounds)
	v.SetDefault("provider_timeout", DefaultProviderTimeout)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "lectern")
	v.SetDefault("postgres_password", "lectern_dev_password")
	v.SetDefault("postgres_db_name", "lectern")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("docs_path", "docs")
	v.SetDefault("addr", "127.0.0.1:8000")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// PostgresConnectionString returns the PostgreSQL DSN for pgx.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		quoteDSNValue(c.PostgresPassword),
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}

// PostgresURL returns the PostgreSQL URL for golang-migrate.
// Uses url.URL so special characters in credentials are encoded.
func (c *Config) PostgresURL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.PostgresSSLMode),
	}
	return u.String()
}

// quoteDSNValue single-quotes a DSN value so spaces, '=' and quotes survive.
func quoteDSNValue(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}
