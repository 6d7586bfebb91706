package rag

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
)

// fakeAnswerer records calls, reports scripted sources into the request's
// collector the way tools do, and returns a canned answer.
type fakeAnswerer struct {
	answer      string
	sources     []tools.Source
	err         error
	lastHistory string
	calls       int
}

func (f *fakeAnswerer) Answer(ctx context.Context, question, history string) (string, error) {
	f.calls++
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	if c := tools.SourceCollectorFrom(ctx); c != nil && f.sources != nil {
		c.Replace(f.sources)
	}
	return f.answer, nil
}

// fakeCounter implements CourseCounter.
type fakeCounter struct {
	titles []string
	err    error
}

func (f *fakeCounter) ListCourseTitles(ctx context.Context) ([]string, error) {
	return f.titles, f.err
}

func (f *fakeCounter) CountCourses(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.titles), nil
}

func newTestSystem(t *testing.T, answerer Answerer) *System {
	t.Helper()
	sys, err := New(answerer, session.NewManager(2), &fakeCounter{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return sys
}

func TestAnswer_NewSession(t *testing.T) {
	answerer := &fakeAnswerer{
		answer:  "42",
		sources: []tools.Source{{Display: "Course - Lesson 1"}},
	}
	sys := newTestSystem(t, answerer)

	answer, sources, sid, err := sys.Answer(context.Background(), uuid.Nil, "What is the answer?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "42" {
		t.Errorf("answer = %q", answer)
	}
	if sid == uuid.Nil {
		t.Error("no session ID assigned")
	}
	if len(sources) != 1 || sources[0].Display != "Course - Lesson 1" {
		t.Errorf("sources = %+v", sources)
	}
	if answerer.lastHistory != "" {
		t.Errorf("fresh session got history %q", answerer.lastHistory)
	}
}

func TestAnswer_HistoryFlowsIntoNextExchange(t *testing.T) {
	answerer := &fakeAnswerer{answer: "first answer"}
	sys := newTestSystem(t, answerer)

	_, _, sid, err := sys.Answer(context.Background(), uuid.Nil, "first question")
	if err != nil {
		t.Fatal(err)
	}

	answerer.answer = "second answer"
	_, _, sid2, err := sys.Answer(context.Background(), sid, "second question")
	if err != nil {
		t.Fatal(err)
	}
	if sid2 != sid {
		t.Errorf("session ID changed: %v -> %v", sid, sid2)
	}

	want := "User: first question\nAssistant: first answer"
	if answerer.lastHistory != want {
		t.Errorf("history = %q, want %q", answerer.lastHistory, want)
	}
}

func TestAnswer_SourcesDoNotCarryIntoNextExchange(t *testing.T) {
	answerer := &fakeAnswerer{
		answer:  "found it",
		sources: []tools.Source{{Display: "Course - Lesson 1"}},
	}
	sys := newTestSystem(t, answerer)

	_, sources, sid, err := sys.Answer(context.Background(), uuid.Nil, "first question")
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 {
		t.Fatalf("sources = %+v, want 1", sources)
	}

	// The second exchange uses no tools; its answer must carry no
	// attribution from the first.
	answerer.sources = nil
	_, sources, _, err = sys.Answer(context.Background(), sid, "second question")
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 0 {
		t.Errorf("sources = %+v, want empty on a tool-free exchange", sources)
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	sys := newTestSystem(t, &fakeAnswerer{})

	_, _, _, err := sys.Answer(context.Background(), uuid.Nil, "")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAnswer_GeneratorError(t *testing.T) {
	sys := newTestSystem(t, &fakeAnswerer{err: errors.New("provider down")})

	_, sources, sid, err := sys.Answer(context.Background(), uuid.Nil, "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if sid == uuid.Nil {
		t.Error("session ID should still be returned")
	}
	if len(sources) != 0 {
		t.Errorf("sources = %+v, want none on failure", sources)
	}

	// The failed exchange must not enter history.
	if h := sys.sessions.History(sid); len(h) != 0 {
		t.Errorf("history = %+v, want empty", h)
	}
}

// blockingAnswerer parks every call on a barrier so two Answer invocations
// provably overlap, then reports sources named after its own question.
type blockingAnswerer struct {
	barrier *sync.WaitGroup
}

func (b *blockingAnswerer) Answer(ctx context.Context, question, history string) (string, error) {
	if c := tools.SourceCollectorFrom(ctx); c != nil {
		c.Replace([]tools.Source{{Display: "source for " + question}})
	}
	// Wait until every concurrent call has recorded its sources.
	b.barrier.Done()
	b.barrier.Wait()
	return "answer to " + question, nil
}

func TestAnswer_ConcurrentQueriesKeepTheirOwnSources(t *testing.T) {
	const concurrent = 4

	var barrier sync.WaitGroup
	barrier.Add(concurrent)
	sys := newTestSystem(t, &blockingAnswerer{barrier: &barrier})

	questions := []string{"alpha", "beta", "gamma", "delta"}
	results := make([][]tools.Source, concurrent)

	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, sources, _, err := sys.Answer(context.Background(), uuid.Nil, questions[i])
			if err != nil {
				t.Errorf("Answer(%s) failed: %v", questions[i], err)
				return
			}
			results[i] = sources
		}(i)
	}
	wg.Wait()

	for i, q := range questions {
		want := "source for " + q
		if len(results[i]) != 1 || results[i][0].Display != want {
			t.Errorf("query %q got sources %+v, want [%s]", q, results[i], want)
		}
	}
}

func TestStats(t *testing.T) {
	counter := &fakeCounter{titles: []string{"A", "B"}}
	sys, err := New(&fakeAnswerer{}, session.NewManager(2), counter, nil)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := sys.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCourses != 2 {
		t.Errorf("total = %d, want 2", stats.TotalCourses)
	}
	if len(stats.CourseTitles) != 2 {
		t.Errorf("titles = %v", stats.CourseTitles)
	}
}

func TestStats_EmptyIndex(t *testing.T) {
	sys, err := New(&fakeAnswerer{}, session.NewManager(2), &fakeCounter{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := sys.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.CourseTitles == nil {
		t.Error("titles should be an empty slice, not nil")
	}
}
