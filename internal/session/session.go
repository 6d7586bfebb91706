// Package session tracks per-conversation history in memory. Each session
// keeps the most recent exchanges up to a fixed cap; older ones are evicted
// so prompts stay bounded no matter how long a conversation runs.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxHistory is the number of exchanges a session retains.
const DefaultMaxHistory = 2

// Exchange is one completed question/answer pair.
type Exchange struct {
	Question string
	Answer   string
}

// Session is a conversation with its retained history.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	exchanges []Exchange
}

// Manager owns all live sessions. Safe for concurrent use.
type Manager struct {
	maxHistory int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a Manager retaining up to maxHistory exchanges per
// session. Zero disables history retention entirely; a negative value falls
// back to DefaultMaxHistory.
func NewManager(maxHistory int) *Manager {
	if maxHistory < 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		maxHistory: maxHistory,
		sessions:   map[uuid.UUID]*Session{},
	}
}

// Create starts a new empty session and returns its ID.
func (m *Manager) Create() uuid.UUID {
	id := uuid.New()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &Session{ID: id, CreatedAt: time.Now()}
	return id
}

// AddExchange appends a completed exchange to the session, evicting the
// oldest one past the cap. An unknown session ID is created implicitly, so
// clients may supply their own IDs.
func (m *Manager) AddExchange(id uuid.UUID, question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		sess = &Session{ID: id, CreatedAt: time.Now()}
		m.sessions[id] = sess
	}

	sess.exchanges = append(sess.exchanges, Exchange{Question: question, Answer: answer})
	if len(sess.exchanges) > m.maxHistory {
		sess.exchanges = sess.exchanges[len(sess.exchanges)-m.maxHistory:]
	}
}

// History returns the session's retained exchanges, oldest first. A missing
// session yields nil.
func (m *Manager) History(id uuid.UUID) []Exchange {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil
	}
	out := make([]Exchange, len(sess.exchanges))
	copy(out, sess.exchanges)
	return out
}

// FormatHistory renders the retained exchanges as alternating User and
// Assistant lines for prompt injection. Empty history yields "".
func (m *Manager) FormatHistory(id uuid.UUID) string {
	exchanges := m.History(id)
	if len(exchanges) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", ex.Question, ex.Answer)
	}
	return b.String()
}

// Clear removes a session and its history.
func (m *Manager) Clear(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
