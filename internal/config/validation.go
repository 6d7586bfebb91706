package config

import "fmt"

// Validate checks all configuration values and returns the first violation.
// Called by Load; exported so hand-built Configs in tests and tools get the
// same guarantees.
//
// The max_results check exists because a zero value here does not fail: every
// search quietly returns an empty result set and the assistant reports "no
// relevant content" for all course questions. That failure mode must be
// impossible to boot with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be at least 1, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			ErrInvalidChunkOverlap, c.ChunkOverlap, c.ChunkSize)
	}

	if c.MaxResults < 1 {
		return fmt.Errorf("%w: max_results must be a positive integer, got %d",
			ErrInvalidMaxResults, c.MaxResults)
	}

	if c.MaxHistory < 0 {
		return fmt.Errorf("%w: max_history must not be negative, got %d", ErrInvalidMaxHistory, c.MaxHistory)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("%w: max_tool_rounds must be at least 1, got %d",
			ErrInvalidMaxToolRounds, c.MaxToolRounds)
	}

	if c.MinCourseSimilarity < 0 || c.MinCourseSimilarity > 1 {
		return fmt.Errorf("%w: min_course_similarity must be within [0, 1], got %g",
			ErrInvalidSimilarity, c.MinCourseSimilarity)
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: provider_timeout must be positive, got %s",
			ErrInvalidProviderTimeout, c.ProviderTimeout)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: postgres_host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: postgres_port must be within [1, 65535], got %d",
			ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: postgres_db_name must not be empty", ErrInvalidPostgresDBName)
	}

	return nil
}
