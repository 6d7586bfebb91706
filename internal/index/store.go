package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/lectern/lectern/internal/course"
)

// Store manages course chunks and catalog records with vector search.
// It is safe for concurrent use by multiple goroutines; write consistency
// during reingestion is delegated to the database.
type Store struct {
	querier  Querier
	embedder ai.Embedder
	logger   *slog.Logger

	// minCourseSimilarity is the floor for fuzzy course-name resolution;
	// the nearest catalog entry below it counts as "no matching course".
	minCourseSimilarity float32
}

// New creates a Store.
//
// Example (production):
//
//	store, err := index.New(index.NewPGQuerier(pool), embedder, logger, cfg.MinCourseSimilarity)
//
// Example (testing):
//
//	store, err := index.New(fakeQuerier, fakeEmbedder, log.NewNop(), 0.5)
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger, minCourseSimilarity float32) (*Store, error) {
	if querier == nil {
		return nil, fmt.Errorf("querier is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		querier:             querier,
		embedder:            embedder,
		logger:              logger,
		minCourseSimilarity: minCourseSimilarity,
	}, nil
}

// ChunkID derives the stable chunk row ID from (course title, chunk index).
// Re-ingesting a course produces the same IDs, making ingestion idempotent.
func ChunkID(courseTitle string, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", courseTitle, chunkIndex)
}

// UpsertCourse replaces a course in the index: its chunks are embedded and
// written under stable IDs, and the catalog record (embedded title plus
// lesson metadata) is upserted. Existing chunks of the same course are
// deleted first so a shrunk course leaves no stale tail rows behind.
func (s *Store) UpsertCourse(ctx context.Context, c course.Course, chunks []course.Chunk) error {
	if c.Title == "" {
		return fmt.Errorf("course title must not be empty")
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := s.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks for course %q: %w", c.Title, err)
	}

	if err := s.querier.DeleteCourseChunks(ctx, c.Title); err != nil {
		return fmt.Errorf("deleting stale chunks for course %q: %w", c.Title, err)
	}

	for i, ch := range chunks {
		vec := pgvector.NewVector(embeddings[i])
		err := s.querier.UpsertChunk(ctx, UpsertChunkParams{
			ID:          ChunkID(c.Title, ch.Index),
			CourseTitle: c.Title,
			Lesson:      ch.Lesson,
			ChunkIndex:  ch.Index,
			Content:     ch.Text,
			Embedding:   &vec,
		})
		if err != nil {
			return fmt.Errorf("upserting chunk %d of course %q: %w", ch.Index, c.Title, err)
		}
	}

	titleEmbeddings, err := s.embed(ctx, []string{c.Title})
	if err != nil {
		return fmt.Errorf("embedding title of course %q: %w", c.Title, err)
	}
	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lessons of course %q: %w", c.Title, err)
	}
	titleVec := pgvector.NewVector(titleEmbeddings[0])
	err = s.querier.UpsertCatalogEntry(ctx, UpsertCatalogParams{
		Title:      c.Title,
		Link:       c.Link,
		Instructor: c.Instructor,
		Lessons:    lessonsJSON,
		Embedding:  &titleVec,
	})
	if err != nil {
		return fmt.Errorf("upserting catalog entry for course %q: %w", c.Title, err)
	}

	s.logger.Debug("indexed course", "title", c.Title, "chunks", len(chunks))
	return nil
}

// Query embeds the text and returns up to k chunks nearest to it, most
// relevant first, restricted to the optional course title and lesson number
// filters. courseFilter must already be a canonical title (see
// ResolveCourseTitle); lessonFilter of course.NoLesson disables the lesson
// restriction.
//
// k is validated here, before any embedding or index work: a non-positive
// limit would otherwise surface as a permanently empty result set with no
// error anywhere.
func (s *Store) Query(ctx context.Context, text string, k int, courseFilter string, lessonFilter int) ([]SearchResult, error) {
	if k < 1 {
		return nil, &SearchError{
			Op:  "query",
			Err: fmt.Errorf("%w, got %d", ErrNonPositiveLimit, k),
		}
	}

	embeddings, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, &SearchError{Op: "query", Err: fmt.Errorf("embedding query: %w", err)}
	}
	vec := pgvector.NewVector(embeddings[0])

	params := SearchChunksParams{
		Embedding: &vec,
		Course:    courseFilter,
		Limit:     k,
	}
	if lessonFilter != course.NoLesson {
		lesson := lessonFilter
		params.Lesson = &lesson
	}

	rows, err := s.querier.SearchChunks(ctx, params)
	if err != nil {
		return nil, &SearchError{Op: "query", Err: err}
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		lesson := course.NoLesson
		if row.Lesson != nil {
			lesson = *row.Lesson
		}
		results = append(results, SearchResult{
			Content:     row.Content,
			CourseTitle: row.CourseTitle,
			Lesson:      lesson,
			Similarity:  row.Similarity,
		})
	}
	return results, nil
}

// ResolveCourseTitle maps a partial or misspelled course name to its
// canonical catalog title via nearest-neighbor match over embedded titles.
// Returns ("", false, nil) when no course is close enough, so the caller can
// report "no matching course" instead of silently searching everything.
func (s *Store) ResolveCourseTitle(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}

	embeddings, err := s.embed(ctx, []string{name})
	if err != nil {
		return "", false, &SearchError{Op: "resolve course", Err: fmt.Errorf("embedding name: %w", err)}
	}
	vec := pgvector.NewVector(embeddings[0])

	rows, err := s.querier.NearestCourses(ctx, &vec, 1)
	if err != nil {
		return "", false, &SearchError{Op: "resolve course", Err: err}
	}
	if len(rows) == 0 || rows[0].Similarity < s.minCourseSimilarity {
		s.logger.Debug("no course matched", "name", name, "candidates", len(rows))
		return "", false, nil
	}
	return rows[0].Title, true, nil
}

// GetCourseOutline returns the full course metadata (title, link, lessons)
// for a canonical title, or (nil, nil) if the course is not indexed.
func (s *Store) GetCourseOutline(ctx context.Context, title string) (*course.Course, error) {
	row, err := s.querier.GetCatalogEntry(ctx, title)
	if err != nil {
		return nil, &SearchError{Op: "outline", Err: err}
	}
	if row == nil {
		return nil, nil
	}

	c := &course.Course{
		Title:      row.Title,
		Link:       row.Link,
		Instructor: row.Instructor,
	}
	if len(row.Lessons) > 0 {
		if err := json.Unmarshal(row.Lessons, &c.Lessons); err != nil {
			return nil, &SearchError{Op: "outline", Err: fmt.Errorf("decoding lessons: %w", err)}
		}
	}
	return c, nil
}

// ListCourseTitles returns every indexed course title.
func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	titles, err := s.querier.ListCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing course titles: %w", err)
	}
	return titles, nil
}

// CountCourses returns the number of indexed courses.
func (s *Store) CountCourses(ctx context.Context) (int, error) {
	n, err := s.querier.CountCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return int(n), nil
}

// embed generates embeddings for the given texts in one provider call.
// An empty input yields an empty result without calling the provider.
func (s *Store) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
		out[i] = e.Embedding
	}
	return out, nil
}
