package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes validation; tests mutate single
// fields to probe each rule.
func validConfig() *Config {
	return &Config{
		ModelName:           DefaultModelName,
		EmbedderModel:       DefaultEmbedderModel,
		ChunkSize:           DefaultChunkSize,
		ChunkOverlap:        DefaultChunkOverlap,
		MaxResults:          DefaultMaxResults,
		MinCourseSimilarity: DefaultMinCourseSimilarity,
		MaxHistory:          DefaultMaxHistory,
		MaxToolRounds:       DefaultMaxToolRounds,
		ProviderTimeout:     DefaultProviderTimeout,
		PostgresHost:        "localhost",
		PostgresPort:        5432,
		PostgresUser:        "lectern",
		PostgresPassword:    "secret",
		PostgresDBName:      "lectern",
		PostgresSSLMode:     "disable",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsZeroMaxResults(t *testing.T) {
	// The canonical misconfiguration: max_results=0 makes every search come
	// back empty without an error anywhere. Must fail at load time.
	cfg := validConfig()
	cfg.MaxResults = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMaxResults)
	assert.Contains(t, err.Error(), "positive")
}

func TestValidateRejectsNegativeMaxResults(t *testing.T) {
	cfg := validConfig()
	cfg.MaxResults = -3

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMaxResults)
}

func TestValidateRejectsOverlapNotSmallerThanSize(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunkOverlap)
}

func TestValidateRejectsNegativeOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = -1

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunkOverlap)
}

func TestValidateRejectsZeroChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkSize = 0
	cfg.ChunkOverlap = 0

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunkSize)
}

func TestValidateRejectsZeroToolRounds(t *testing.T) {
	cfg := validConfig()
	cfg.MaxToolRounds = 0

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMaxToolRounds)
}

func TestValidateRejectsSimilarityOutOfRange(t *testing.T) {
	for _, v := range []float32{-0.1, 1.5} {
		cfg := validConfig()
		cfg.MinCourseSimilarity = v

		assert.ErrorIs(t, cfg.Validate(), ErrInvalidSimilarity, "similarity %g", v)
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.ProviderTimeout = 0

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidProviderTimeout)

	cfg.ProviderTimeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidProviderTimeout)
}

func TestValidateRejectsBadPostgresPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.PostgresPort = port

		assert.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresPort, "port %d", port)
	}
}

func TestPostgresConnectionStringQuotesPassword(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "pa ss'word"

	dsn := cfg.PostgresConnectionString()
	assert.Contains(t, dsn, `password='pa ss\'word'`)
	assert.Contains(t, dsn, "host=localhost")
}

func TestPostgresURLEncodesCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "p@ss/word"

	u := cfg.PostgresURL()
	assert.True(t, strings.HasPrefix(u, "postgres://"), "got %s", u)
	assert.NotContains(t, u, "p@ss/word", "password must be URL-encoded")
	assert.Contains(t, u, "sslmode=disable")
}
