// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides session/message/ticket persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			machine_id TEXT,
			language TEXT NOT NULL,
			problem_description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			language TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_id
			ON messages(session_id);

		CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL UNIQUE,
			ticket_number TEXT NOT NULL UNIQUE,
			reason TEXT NOT NULL,
			priority TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			email_sent INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateSession inserts a new session
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, machine_id, language, problem_description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.MachineID, session.Language,
		session.ProblemDescription, session.Status, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

// GetSession retrieves a session by ID
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, machine_id, language, problem_description, status, created_at, updated_at
		FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &sess.UserID, &sess.MachineID, &sess.Language,
		&sess.ProblemDescription, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &sess, nil
}

// UpdateSessionStatus transitions a session to the given status
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveMessage appends a message to a session and bumps the session's updated_at.
// Both writes happen in one transaction so a partial append is never visible.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, msg.SessionID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if status == StatusClosed {
		return ErrSessionClosed
	}

	var metadata any
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, sender, content, type, language, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Sender, msg.Content, msg.Type, msg.Language, metadata, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), msg.SessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

// GetSessionMessages retrieves all messages for a session in insertion order.
// Ordering by rowid rather than created_at keeps same-timestamp appends stable.
func (s *SQLiteStore) GetSessionMessages(ctx context.Context, sessionID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, sender, content, type, language, metadata, created_at
		FROM messages WHERE session_id = ? ORDER BY rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &msg.Content,
			&msg.Type, &msg.Language, &metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// CreateTicket inserts a ticket unless the session already has one.
// The conditional insert resolves the race where two concurrent evaluations
// both decide to escalate: at most one insert wins.
func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket *Ticket) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, session_id, ticket_number, reason, priority, notes, email_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		ticket.ID, ticket.SessionID, ticket.TicketNumber, ticket.Reason,
		ticket.Priority, ticket.Notes, ticket.EmailSent, ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDuplicateTicket
	}

	s.logger.Debug("ticket created", "ticket_id", ticket.ID, "session_id", ticket.SessionID,
		"ticket_number", ticket.TicketNumber)
	return nil
}

// GetTicket retrieves a ticket by ID
func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	return s.queryTicket(ctx, `WHERE id = ?`, id)
}

// GetTicketBySession retrieves the ticket for a session, if any
func (s *SQLiteStore) GetTicketBySession(ctx context.Context, sessionID string) (*Ticket, error) {
	return s.queryTicket(ctx, `WHERE session_id = ?`, sessionID)
}

func (s *SQLiteStore) queryTicket(ctx context.Context, where string, arg any) (*Ticket, error) {
	var t Ticket
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, ticket_number, reason, priority, notes, email_sent, created_at
		FROM tickets `+where, arg).Scan(
		&t.ID, &t.SessionID, &t.TicketNumber, &t.Reason, &t.Priority,
		&t.Notes, &t.EmailSent, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ticket: %w", err)
	}
	return &t, nil
}

// MarkTicketDelivered records the notification delivery outcome for a ticket
func (s *SQLiteStore) MarkTicketDelivered(ctx context.Context, id string, delivered bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tickets SET email_sent = ? WHERE id = ?`, delivered, id)
	if err != nil {
		return fmt.Errorf("updating ticket delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
