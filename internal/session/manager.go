// ABOUTME: Session lifecycle and conversation history management
// ABOUTME: The store is the sole source of truth - no session state lives in memory

package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/induserve/assist/internal/lang"
	"github.com/induserve/assist/internal/store"
)

// Metadata bounds enforced on message appends
const (
	maxMetadataKeys      = 16
	maxMetadataValueSize = 1024
)

// Manager owns session lifecycle and conversation history.
// It holds no session state of its own: a fresh Manager over the same store
// exposes identical sessions and history.
type Manager struct {
	store  store.Store
	logger *slog.Logger
}

// NewManager creates a session manager over the given store.
func NewManager(st store.Store) *Manager {
	return &Manager{
		store:  st,
		logger: slog.Default().With("component", "session"),
	}
}

// CreateSession opens a new troubleshooting session and returns its ID.
// machineID may be empty when the session is not tied to a machine.
func (m *Manager) CreateSession(ctx context.Context, userID, machineID, language, problemDescription string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if problemDescription == "" {
		return "", fmt.Errorf("problem_description is required")
	}
	if !lang.IsSupported(language) {
		return "", fmt.Errorf("unsupported language %q", language)
	}

	now := time.Now().UTC()
	sess := &store.Session{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Language:           language,
		ProblemDescription: problemDescription,
		Status:             store.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if machineID != "" {
		sess.MachineID = &machineID
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	m.logger.Info("session created",
		"session_id", sess.ID, "user_id", userID, "language", language)
	return sess.ID, nil
}

// GetSession retrieves a session. Returns store.ErrNotFound if it does not exist.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*store.Session, error) {
	return m.store.GetSession(ctx, sessionID)
}

// AddMessage appends a message to a session and returns the message ID.
// The message is immediately visible to subsequent history reads.
// Returns store.ErrNotFound for a missing session and store.ErrSessionClosed
// for a closed one.
func (m *Manager) AddMessage(ctx context.Context, sessionID, sender, content, messageType, language string, metadata map[string]string) (string, error) {
	switch sender {
	case store.SenderUser, store.SenderAssistant, store.SenderSystem:
	default:
		return "", fmt.Errorf("invalid sender %q", sender)
	}

	switch messageType {
	case store.MessageTypeText, store.MessageTypeVoice, store.MessageTypeDiagnosticStep:
	default:
		return "", fmt.Errorf("invalid message type %q", messageType)
	}

	if !lang.IsSupported(language) {
		return "", fmt.Errorf("unsupported language %q", language)
	}

	if len(metadata) > maxMetadataKeys {
		return "", fmt.Errorf("metadata exceeds %d keys", maxMetadataKeys)
	}
	for k, v := range metadata {
		if len(v) > maxMetadataValueSize {
			return "", fmt.Errorf("metadata value for %q exceeds %d bytes", k, maxMetadataValueSize)
		}
	}

	msg := &store.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		Type:      messageType,
		Language:  language,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.SaveMessage(ctx, msg); err != nil {
		return "", err
	}

	m.logger.Debug("message appended",
		"session_id", sessionID, "message_id", msg.ID, "sender", sender)
	return msg.ID, nil
}

// GetSessionHistory returns all messages for a session in insertion order.
func (m *Manager) GetSessionHistory(ctx context.Context, sessionID string) ([]*store.Message, error) {
	if _, err := m.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return m.store.GetSessionMessages(ctx, sessionID)
}

// CloseSession transitions a session to the terminal closed state.
func (m *Manager) CloseSession(ctx context.Context, sessionID string) error {
	if err := m.store.UpdateSessionStatus(ctx, sessionID, store.StatusClosed); err != nil {
		return err
	}
	m.logger.Info("session closed", "session_id", sessionID)
	return nil
}
