package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lectern/lectern/internal/course"
)

// SearchInput defines input for the search_course_content tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title to search within (partial names match, e.g. 'MCP' or 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// SearchTool performs semantic search over course chunks and reports the
// sources of its hits for attribution. It holds no per-request state and is
// safe for concurrent use.
type SearchTool struct {
	searcher   Searcher
	maxResults int
	logger     *slog.Logger
}

// NewSearchTool creates the content search tool. maxResults bounds every
// search.
func NewSearchTool(searcher Searcher, maxResults int, logger *slog.Logger) (*SearchTool, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if maxResults < 1 {
		return nil, fmt.Errorf("maxResults must be positive, got %d", maxResults)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{searcher: searcher, maxResults: maxResults, logger: logger}, nil
}

// Name implements Tool.
func (t *SearchTool) Name() string { return SearchCourseContentName }

// Execute implements Tool by decoding the raw arguments into SearchInput.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var in SearchInput
	if err := decodeArgs(args, &in); err != nil {
		return "", fmt.Errorf("decoding %s input: %w", SearchCourseContentName, err)
	}
	return t.Search(ctx, in)
}

// Search resolves the optional course filter, queries the index, records
// the sources of the hits, and formats the results for the model. Misses
// come back as readable messages rather than errors.
//
// Sources are recorded on every invocation: a search that finds nothing
// clears the attribution, so the caller never sees sources from an earlier
// call the final answer did not draw on.
func (t *SearchTool) Search(ctx context.Context, in SearchInput) (string, error) {
	recordSources(ctx, nil)

	courseFilter := ""
	if in.CourseName != "" {
		title, found, err := t.searcher.ResolveCourseTitle(ctx, in.CourseName)
		if err != nil {
			return "", fmt.Errorf("resolving course name %q: %w", in.CourseName, err)
		}
		if !found {
			return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
		}
		courseFilter = title
	}

	lessonFilter := course.NoLesson
	if in.LessonNumber != nil {
		lessonFilter = *in.LessonNumber
	}

	results, err := t.searcher.Query(ctx, in.Query, t.maxResults, courseFilter, lessonFilter)
	if err != nil {
		return "", fmt.Errorf("searching course content: %w", err)
	}

	if len(results) == 0 {
		var filter strings.Builder
		if in.CourseName != "" {
			fmt.Fprintf(&filter, " in course '%s'", in.CourseName)
		}
		if in.LessonNumber != nil {
			fmt.Fprintf(&filter, " in lesson %d", *in.LessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filter.String()), nil
	}

	// Lesson links live on the catalog record; fetch each referenced
	// course at most once.
	outlines := map[string]*course.Course{}
	outline := func(title string) *course.Course {
		if c, ok := outlines[title]; ok {
			return c
		}
		c, err := t.searcher.GetCourseOutline(ctx, title)
		if err != nil {
			t.logger.Warn("outline lookup for attribution failed", "course", title, "error", err)
			c = nil
		}
		outlines[title] = c
		return c
	}

	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		header := fmt.Sprintf("[%s]", r.CourseTitle)
		display := r.CourseTitle
		link := ""
		if c := outline(r.CourseTitle); c != nil {
			link = c.Link
		}
		if r.Lesson != course.NoLesson {
			header = fmt.Sprintf("[%s - Lesson %d]", r.CourseTitle, r.Lesson)
			display = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, r.Lesson)
			if c := outline(r.CourseTitle); c != nil {
				for _, l := range c.Lessons {
					if l.Number == r.Lesson {
						link = l.Link
						break
					}
				}
			}
		}
		blocks = append(blocks, header+"\n"+r.Content)
		sources = append(sources, Source{Display: display, Link: link})
	}

	recordSources(ctx, sources)
	return strings.Join(blocks, "\n\n"), nil
}
