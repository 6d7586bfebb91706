// Package tools defines the tools the model may call while answering a
// question: semantic search over course content and course outline lookup.
//
// Tool results are plain strings the model can read directly, including
// "not found" messages, so the model can recover and rephrase instead of
// aborting the exchange. Tools that retrieve material report the sources
// that produced it into the request's SourceCollector; the caller reads the
// collector after the answer for attribution.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/index"
)

// Tool name constants registered with Genkit.
const (
	// SearchCourseContentName is the tool for semantic search over chunks.
	SearchCourseContentName = "search_course_content"
	// GetCourseOutlineName is the tool for course outline lookup.
	GetCourseOutlineName = "get_course_outline"
)

// Source identifies where a tool result came from, for user-facing
// attribution. Link is empty when the material has no URL.
type Source struct {
	Display string `json:"display"`
	Link    string `json:"link,omitempty"`
}

// Searcher is the part of the index the tools depend on.
type Searcher interface {
	Query(ctx context.Context, text string, k int, courseFilter string, lessonFilter int) ([]index.SearchResult, error)
	ResolveCourseTitle(ctx context.Context, name string) (string, bool, error)
	GetCourseOutline(ctx context.Context, title string) (*course.Course, error)
}

// Tool is a named capability the model can invoke with raw JSON-like
// arguments. Implementations return readable text for the model; an error
// return means the tool itself failed, not that it found nothing.
type Tool interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry dispatches tool calls by name. Tools hold no per-request state,
// so one Registry serves all concurrent queries; request-scoped data such
// as source attribution travels through the context instead. New tools
// plug in via Add without touching the generation loop.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{tools: map[string]Tool{}, logger: logger}
}

// Add registers a tool under its name. Registering two tools with the same
// name is a wiring bug and fails.
func (r *Registry) Add(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is required")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Execute dispatches a tool request by name with the raw model-provided
// arguments. An unknown tool name yields an explanatory result string, not
// an error, so the model can correct itself on the next round.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return t.Execute(ctx, args)
}

// decodeArgs converts the model's raw argument map into a typed input
// struct via a JSON round trip.
func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
