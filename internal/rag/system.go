// Package rag ties the pieces together: ingestion of course documents into
// the vector index, and answering questions through the tool-calling
// generation loop with per-session history.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
)

// Answerer runs one question through the generation loop.
type Answerer interface {
	Answer(ctx context.Context, question, history string) (string, error)
}

// CourseCounter is the part of the index the analytics endpoint needs.
type CourseCounter interface {
	ListCourseTitles(ctx context.Context) ([]string, error)
	CountCourses(ctx context.Context) (int, error)
}

// System is the top-level orchestrator behind the HTTP API.
type System struct {
	generator Answerer
	sessions  *session.Manager
	index     CourseCounter
	logger    *slog.Logger
}

// New creates a System.
func New(generator Answerer, sessions *session.Manager, index CourseCounter, logger *slog.Logger) (*System, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		generator: generator,
		sessions:  sessions,
		index:     index,
		logger:    logger,
	}, nil
}

// Answer runs one question through the generation loop with the session's
// retained history. A nil session ID starts a new session; the effective ID
// is always returned so clients can continue the conversation. Sources are
// collected through a per-request collector scoped to this call, so
// concurrent queries and later exchanges never see each other's
// attribution.
func (s *System) Answer(ctx context.Context, sessionID uuid.UUID, question string) (string, []tools.Source, uuid.UUID, error) {
	if question == "" {
		return "", nil, uuid.Nil, fmt.Errorf("question must not be empty")
	}

	if sessionID == uuid.Nil {
		sessionID = s.sessions.Create()
	}

	history := s.sessions.FormatHistory(sessionID)

	ctx, collector := tools.WithSourceCollector(ctx)
	answer, err := s.generator.Answer(ctx, question, history)
	if err != nil {
		return "", nil, sessionID, fmt.Errorf("answering question: %w", err)
	}
	sources := collector.Sources()

	s.sessions.AddExchange(sessionID, question, answer)

	s.logger.Debug("answered question",
		"session_id", sessionID,
		"sources", len(sources))
	return answer, sources, sessionID, nil
}

// Stats reports what the index currently holds, for the analytics endpoint.
type Stats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Stats returns the course count and title list.
func (s *System) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.index.CountCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting courses: %w", err)
	}
	titles, err := s.index.ListCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	if titles == nil {
		titles = []string{}
	}
	return &Stats{TotalCourses: count, CourseTitles: titles}, nil
}
