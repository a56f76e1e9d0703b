// Package store provides persistent storage for the assistant core using SQLite.
//
// # Data Models
//
//   - Session: One user's troubleshooting conversation (status: active,
//     escalated, closed)
//   - Message: Immutable, append-only conversation entries read back in
//     strict insertion order
//   - Ticket: The persisted record of an escalation to a human expert
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically on first open. The store is the sole
// source of truth for session state: a fresh process pointed at the same
// database file sees identical sessions and history.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrSessionClosed: Append attempted on a closed session
//   - ErrDuplicateTicket: Session already has an open ticket
//
// The one-open-ticket-per-session invariant is enforced at this layer with a
// conditional insert, so it holds even when two concurrent evaluations for the
// same session both decide to escalate.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore with a t.TempDir()
// path for integration tests against real SQLite.
package store
