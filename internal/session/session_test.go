package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCreateAndHistory(t *testing.T) {
	m := NewManager(2)

	id := m.Create()
	if got := m.History(id); len(got) != 0 {
		t.Errorf("new session history = %v", got)
	}

	m.AddExchange(id, "q1", "a1")
	history := m.History(id)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Question != "q1" || history[0].Answer != "a1" {
		t.Errorf("history[0] = %+v", history[0])
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	m := NewManager(2)
	if got := m.History(uuid.New()); got != nil {
		t.Errorf("unknown session history = %v, want nil", got)
	}
}

func TestAddExchangeImplicitCreate(t *testing.T) {
	m := NewManager(2)
	id := uuid.New()

	m.AddExchange(id, "q", "a")
	if len(m.History(id)) != 1 {
		t.Error("exchange not stored for client-supplied ID")
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestHistoryTruncation(t *testing.T) {
	m := NewManager(2)
	id := m.Create()

	for i := 1; i <= 5; i++ {
		m.AddExchange(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history := m.History(id)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	// Oldest first, holding only the two most recent exchanges.
	if history[0].Question != "q4" || history[1].Question != "q5" {
		t.Errorf("history = %+v", history)
	}
}

func TestZeroMaxHistoryDisablesRetention(t *testing.T) {
	m := NewManager(0)
	id := m.Create()

	m.AddExchange(id, "q1", "a1")
	m.AddExchange(id, "q2", "a2")

	if history := m.History(id); len(history) != 0 {
		t.Errorf("history = %+v, want none with retention disabled", history)
	}
	if got := m.FormatHistory(id); got != "" {
		t.Errorf("FormatHistory() = %q, want empty", got)
	}
}

func TestNegativeMaxHistoryFallsBackToDefault(t *testing.T) {
	m := NewManager(-1)
	id := m.Create()

	for i := 1; i <= 3; i++ {
		m.AddExchange(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	if history := m.History(id); len(history) != DefaultMaxHistory {
		t.Errorf("history length = %d, want %d", len(history), DefaultMaxHistory)
	}
}

func TestFormatHistory(t *testing.T) {
	m := NewManager(2)
	id := m.Create()

	if got := m.FormatHistory(id); got != "" {
		t.Errorf("empty session format = %q", got)
	}

	m.AddExchange(id, "What is Go?", "A programming language.")
	m.AddExchange(id, "Who made it?", "Google.")

	want := "User: What is Go?\nAssistant: A programming language.\n" +
		"User: Who made it?\nAssistant: Google."
	if got := m.FormatHistory(id); got != want {
		t.Errorf("format = %q, want %q", got, want)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	m := NewManager(2)
	id := m.Create()
	m.AddExchange(id, "q", "a")

	history := m.History(id)
	history[0].Answer = "tampered"

	if m.History(id)[0].Answer != "a" {
		t.Error("History exposed internal state")
	}
}

func TestClear(t *testing.T) {
	m := NewManager(2)
	id := m.Create()
	m.AddExchange(id, "q", "a")

	m.Clear(id)
	if m.History(id) != nil {
		t.Error("history survived Clear")
	}
	if m.Count() != 0 {
		t.Errorf("count = %d, want 0", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager(2)
	id := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.AddExchange(id, fmt.Sprintf("q%d", i), "a")
		}(i)
		go func() {
			defer wg.Done()
			_ = m.FormatHistory(id)
		}()
	}
	wg.Wait()

	if got := len(m.History(id)); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}
