// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu               sync.RWMutex
	sessions         map[string]*Session  // keyed by session ID
	messages         map[string][]*Message // keyed by session ID, in append order
	tickets          map[string]*Ticket   // keyed by ticket ID
	ticketsBySession map[string]string    // session ID -> ticket ID
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions:         make(map[string]*Session),
		messages:         make(map[string][]*Message),
		tickets:          make(map[string]*Ticket),
		ticketsBySession: make(map[string]string),
	}
}

// CreateSession stores a new session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a session by ID.
func (m *MockStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s := *sess
	return &s, nil
}

// UpdateSessionStatus transitions a session to the given status.
func (m *MockStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveMessage appends a message to a session.
func (m *MockStore) SaveMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[msg.SessionID]
	if !ok {
		return ErrNotFound
	}
	if sess.Status == StatusClosed {
		return ErrSessionClosed
	}

	// Copy, including the metadata map, to avoid external modification
	saved := *msg
	if msg.Metadata != nil {
		saved.Metadata = make(map[string]string, len(msg.Metadata))
		for k, v := range msg.Metadata {
			saved.Metadata[k] = v
		}
	}
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], &saved)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// GetSessionMessages returns all messages for a session in append order.
func (m *MockStore) GetSessionMessages(ctx context.Context, sessionID string) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[sessionID]
	out := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		c := *msg
		out = append(out, &c)
	}
	return out, nil
}

// CreateTicket stores a ticket unless the session already has one.
func (m *MockStore) CreateTicket(ctx context.Context, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ticketsBySession[ticket.SessionID]; exists {
		return ErrDuplicateTicket
	}

	t := *ticket
	m.tickets[t.ID] = &t
	m.ticketsBySession[t.SessionID] = t.ID
	return nil
}

// GetTicket retrieves a ticket by ID.
func (m *MockStore) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t := *ticket
	return &t, nil
}

// GetTicketBySession retrieves the ticket for a session, if any.
func (m *MockStore) GetTicketBySession(ctx context.Context, sessionID string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.ticketsBySession[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	t := *m.tickets[id]
	return &t, nil
}

// MarkTicketDelivered records the notification delivery outcome for a ticket.
func (m *MockStore) MarkTicketDelivered(ctx context.Context, id string, delivered bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return ErrNotFound
	}
	ticket.EmailSent = delivered
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
