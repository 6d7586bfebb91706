package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/lectern/lectern/internal/course"
)

// supportedExtensions are the course document types the ingestor reads.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// CourseIndexer is the part of the index the ingestor depends on.
type CourseIndexer interface {
	UpsertCourse(ctx context.Context, c course.Course, chunks []course.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	CoursesAdded   int
	CoursesSkipped int
	FilesFailed    int
	ChunksIndexed  int
	Duration       time.Duration
}

// Ingestor parses course documents and writes them to the index.
type Ingestor struct {
	index   CourseIndexer
	chunker *course.Chunker
	logger  *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(index CourseIndexer, chunker *course.Chunker, logger *slog.Logger) (*Ingestor, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{index: index, chunker: chunker, logger: logger}, nil
}

// IngestDirectory parses every supported course document under dirPath and
// indexes the new ones. Courses whose title is already indexed are skipped
// unless reindex is set, so startup ingestion is idempotent. A malformed
// file is logged and counted but never aborts the run.
func (ing *Ingestor) IngestDirectory(ctx context.Context, dirPath string, reindex bool) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	absDir, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolving directory path: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("reading course directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dirPath)
	}

	existing := map[string]bool{}
	if !reindex {
		titles, err := ing.index.ListCourseTitles(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing indexed courses: %w", err)
		}
		for _, t := range titles {
			existing[t] = true
		}
	}

	// Honor a .gitignore in the course directory; a malformed one is
	// ignored rather than failing the run.
	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(absDir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			ing.logger.Warn("ignoring malformed .gitignore", "path", gitignorePath, "error", err)
			gitIgnore = nil
		}
	}

	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, fmt.Errorf("opening course directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	err = filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			result.FilesFailed++
			return nil
		}

		relPath, err := filepath.Rel(absDir, path)
		if err != nil {
			result.FilesFailed++
			return nil
		}

		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		added, chunks, err := ing.ingestFile(ctx, root, relPath, existing)
		if err != nil {
			ing.logger.Warn("skipping course document", "file", relPath, "error", err)
			result.FilesFailed++
			return nil
		}
		if added {
			result.CoursesAdded++
			result.ChunksIndexed += chunks
		} else {
			result.CoursesSkipped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking course directory: %w", err)
	}

	result.Duration = time.Since(start)
	ing.logger.Info("ingestion finished",
		"added", result.CoursesAdded,
		"skipped", result.CoursesSkipped,
		"failed", result.FilesFailed,
		"chunks", result.ChunksIndexed,
		"duration", result.Duration)
	return result, nil
}

// ingestFile parses one course document and indexes it unless its title is
// already present. Reads go through the restricted root so symlinks cannot
// escape the course directory.
func (ing *Ingestor) ingestFile(ctx context.Context, root *os.Root, relPath string, existing map[string]bool) (bool, int, error) {
	f, err := root.Open(relPath)
	if err != nil {
		return false, 0, fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	doc, err := course.ParseDocument(f, relPath)
	if err != nil {
		return false, 0, fmt.Errorf("parsing document: %w", err)
	}

	if existing[doc.Course.Title] {
		return false, 0, nil
	}

	chunks := ing.chunker.Chunk(doc)
	if err := ing.index.UpsertCourse(ctx, doc.Course, chunks); err != nil {
		return false, 0, fmt.Errorf("indexing course %q: %w", doc.Course.Title, err)
	}

	// Later duplicates of the same title within this run are skips too.
	existing[doc.Course.Title] = true

	ing.logger.Debug("indexed course document",
		"file", relPath,
		"course", doc.Course.Title,
		"chunks", len(chunks))
	return true, len(chunks), nil
}
