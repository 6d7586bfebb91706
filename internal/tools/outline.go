package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// OutlineInput defines input for the get_course_outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title to fetch the outline for (partial names match)"`
}

// OutlineTool returns a course's full outline and records the course as a
// source. It holds no per-request state and is safe for concurrent use.
type OutlineTool struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(searcher Searcher, logger *slog.Logger) (*OutlineTool, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlineTool{searcher: searcher, logger: logger}, nil
}

// Name implements Tool.
func (t *OutlineTool) Name() string { return GetCourseOutlineName }

// Execute implements Tool by decoding the raw arguments into OutlineInput.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var in OutlineInput
	if err := decodeArgs(args, &in); err != nil {
		return "", fmt.Errorf("decoding %s input: %w", GetCourseOutlineName, err)
	}
	return t.Outline(ctx, in)
}

// Outline resolves the course name and formats its full outline: title,
// link, instructor and the numbered lesson list. Like Search, it records
// sources on every invocation so a miss clears earlier attribution.
func (t *OutlineTool) Outline(ctx context.Context, in OutlineInput) (string, error) {
	recordSources(ctx, nil)

	if in.CourseName == "" {
		return "No course found matching ''", nil
	}

	title, found, err := t.searcher.ResolveCourseTitle(ctx, in.CourseName)
	if err != nil {
		return "", fmt.Errorf("resolving course name %q: %w", in.CourseName, err)
	}
	if !found {
		return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
	}

	c, err := t.searcher.GetCourseOutline(ctx, title)
	if err != nil {
		return "", fmt.Errorf("fetching outline for %q: %w", title, err)
	}
	if c == nil {
		return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
	}

	recordSources(ctx, []Source{{Display: c.Title, Link: c.Link}})
	return strings.TrimRight(b.String(), "\n"), nil
}
