package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGQuerier is the pgx-backed Querier over the documents and course_catalog
// tables (see db/migrations). All statements are parameterized.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier creates a PGQuerier on the given connection pool.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

func (q *PGQuerier) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	var lesson *int
	if arg.Lesson >= 0 {
		lesson = &arg.Lesson
	}
	_, err := q.pool.Exec(ctx, `
		INSERT INTO documents (id, course_title, lesson_number, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			course_title = EXCLUDED.course_title,
			lesson_number = EXCLUDED.lesson_number,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		arg.ID, arg.CourseTitle, lesson, arg.ChunkIndex, arg.Content, arg.Embedding)
	if err != nil {
		return fmt.Errorf("upserting chunk %q: %w", arg.ID, err)
	}
	return nil
}

func (q *PGQuerier) UpsertCatalogEntry(ctx context.Context, arg UpsertCatalogParams) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO course_catalog (title, link, instructor, lessons, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE SET
			link = EXCLUDED.link,
			instructor = EXCLUDED.instructor,
			lessons = EXCLUDED.lessons,
			embedding = EXCLUDED.embedding`,
		arg.Title, arg.Link, arg.Instructor, arg.Lessons, arg.Embedding)
	if err != nil {
		return fmt.Errorf("upserting catalog entry %q: %w", arg.Title, err)
	}
	return nil
}

func (q *PGQuerier) DeleteCourseChunks(ctx context.Context, courseTitle string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM documents WHERE course_title = $1`, courseTitle)
	if err != nil {
		return fmt.Errorf("deleting chunks of %q: %w", courseTitle, err)
	}
	return nil
}

func (q *PGQuerier) SearchChunks(ctx context.Context, arg SearchChunksParams) ([]ChunkRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT content, course_title, lesson_number,
		       1 - (embedding <=> $1) AS similarity
		FROM documents
		WHERE ($2::text = '' OR course_title = $2)
		  AND ($3::int IS NULL OR lesson_number = $3)
		ORDER BY embedding <=> $1
		LIMIT $4`,
		arg.Embedding, arg.Course, arg.Lesson, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		if err := rows.Scan(&r.Content, &r.CourseTitle, &r.Lesson, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}
	return out, nil
}

func (q *PGQuerier) NearestCourses(ctx context.Context, embedding *pgvector.Vector, limit int) ([]CatalogRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT title, link, instructor, lessons,
		       1 - (embedding <=> $1) AS similarity
		FROM course_catalog
		ORDER BY embedding <=> $1
		LIMIT $2`,
		embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var out []CatalogRow
	for rows.Next() {
		var r CatalogRow
		if err := rows.Scan(&r.Title, &r.Link, &r.Instructor, &r.Lessons, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return out, nil
}

func (q *PGQuerier) GetCatalogEntry(ctx context.Context, title string) (*CatalogRow, error) {
	var r CatalogRow
	err := q.pool.QueryRow(ctx, `
		SELECT title, link, instructor, lessons
		FROM course_catalog
		WHERE title = $1`,
		title).Scan(&r.Title, &r.Link, &r.Instructor, &r.Lessons)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching catalog entry %q: %w", title, err)
	}
	return &r, nil
}

func (q *PGQuerier) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := q.pool.Query(ctx, `SELECT title FROM course_catalog ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating titles: %w", err)
	}
	return titles, nil
}

func (q *PGQuerier) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, `SELECT count(*) FROM course_catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return n, nil
}
