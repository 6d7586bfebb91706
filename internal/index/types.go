// Package index provides the vector index for course-material chunks.
//
// It owns embedding generation and the persisted chunk/catalog records:
// chunks are embedded and stored with their course/lesson metadata under a
// stable ID derived from (course title, chunk index), so re-ingesting a
// course overwrites rather than duplicates. Search embeds the query text and
// runs a filtered nearest-neighbor scan over pgvector.
package index

import (
	"context"

	"github.com/pgvector/pgvector-go"
)

// SearchResult is one ranked hit from Query, ordered most relevant first.
type SearchResult struct {
	Content     string
	CourseTitle string
	Lesson      int // course.NoLesson for course-level chunks
	Similarity  float32
}

// UpsertChunkParams inserts or replaces one chunk row.
type UpsertChunkParams struct {
	ID          string
	CourseTitle string
	Lesson      int // course.NoLesson maps to NULL
	ChunkIndex  int
	Content     string
	Embedding   *pgvector.Vector
}

// UpsertCatalogParams inserts or replaces one course catalog row. Lessons is
// the JSON-serialized lesson list.
type UpsertCatalogParams struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []byte
	Embedding  *pgvector.Vector
}

// SearchChunksParams is a filtered nearest-neighbor query over chunk rows.
// Empty CourseTitle and nil Lesson disable the respective filter.
type SearchChunksParams struct {
	Embedding *pgvector.Vector
	Course    string
	Lesson    *int
	Limit     int
}

// ChunkRow is one chunk search hit as returned by the storage layer.
type ChunkRow struct {
	Content     string
	CourseTitle string
	Lesson      *int
	Similarity  float32
}

// CatalogRow is one course catalog record.
type CatalogRow struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []byte
	Similarity float32
}

// Querier defines the storage operations Store depends on. The interface is
// defined here, by the consumer, so tests can substitute an in-memory fake
// for the pgx-backed implementation.
type Querier interface {
	// UpsertChunk inserts or replaces a chunk row by ID.
	UpsertChunk(ctx context.Context, arg UpsertChunkParams) error

	// UpsertCatalogEntry inserts or replaces a course catalog row by title.
	UpsertCatalogEntry(ctx context.Context, arg UpsertCatalogParams) error

	// DeleteCourseChunks removes all chunk rows of a course.
	DeleteCourseChunks(ctx context.Context, courseTitle string) error

	// SearchChunks performs a filtered vector search over chunk rows,
	// ordered by ascending distance.
	SearchChunks(ctx context.Context, arg SearchChunksParams) ([]ChunkRow, error)

	// NearestCourses returns catalog rows nearest to the embedding.
	NearestCourses(ctx context.Context, embedding *pgvector.Vector, limit int) ([]CatalogRow, error)

	// GetCatalogEntry fetches one catalog row by exact title; (nil, nil)
	// when the course does not exist.
	GetCatalogEntry(ctx context.Context, title string) (*CatalogRow, error)

	// ListCourseTitles returns all catalog titles, sorted.
	ListCourseTitles(ctx context.Context) ([]string, error)

	// CountCourses counts catalog rows.
	CountCourses(ctx context.Context) (int64, error)
}
