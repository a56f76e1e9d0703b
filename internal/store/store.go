// ABOUTME: Store interface and data types for assist persistence
// ABOUTME: Defines Session, Message, Ticket structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrSessionClosed is returned when appending a message to a closed session
var ErrSessionClosed = errors.New("session closed")

// ErrDuplicateTicket is returned when a session already has an open ticket
var ErrDuplicateTicket = errors.New("ticket already exists for session")

// Session status constants
const (
	StatusActive    = "active"    // Accepts message appends and turn requests
	StatusEscalated = "escalated" // Handed to a human; history remains appendable
	StatusClosed    = "closed"    // Terminal; no further appends
)

// Sender constants for message roles
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

// MessageType constants for message types
const (
	MessageTypeText           = "text"
	MessageTypeVoice          = "voice"
	MessageTypeDiagnosticStep = "diagnostic_step"
)

// Session represents one user's ongoing troubleshooting conversation
type Session struct {
	ID                 string
	UserID             string
	MachineID          *string // nil when the session is not tied to a machine
	Language           string
	ProblemDescription string
	Status             string // "active", "escalated", "closed"
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Message represents a single message within a session.
// Messages are immutable once written and are read back in insertion order.
type Message struct {
	ID        string
	SessionID string
	Sender    string // "user", "assistant", "system"
	Content   string
	Type      string // "text", "voice", "diagnostic_step"
	Language  string
	Metadata  map[string]string // small, bounded; persisted as JSON
	CreatedAt time.Time
}

// Ticket represents an escalation handed to a human expert.
// Tickets are never mutated after creation except to record delivery outcome.
type Ticket struct {
	ID           string
	SessionID    string
	TicketNumber string // human-presentable, unique, sortable by creation time
	Reason       string
	Priority     string
	Notes        string
	EmailSent    bool
	CreatedAt    time.Time
}

// Store defines the interface for session, message, and ticket persistence
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error

	// Messages (append-only; SaveMessage also bumps the session's UpdatedAt)
	SaveMessage(ctx context.Context, msg *Message) error
	GetSessionMessages(ctx context.Context, sessionID string) ([]*Message, error)

	// Tickets. CreateTicket is a conditional insert keyed on session id:
	// it returns ErrDuplicateTicket when the session already has a ticket,
	// which is what enforces the one-open-ticket invariant under races.
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	GetTicketBySession(ctx context.Context, sessionID string) (*Ticket, error)
	MarkTicketDelivered(ctx context.Context, id string, delivered bool) error

	// Close releases any resources held by the store
	Close() error
}
