// Package session manages troubleshooting session lifecycle and history.
//
// Sessions move through a small state machine:
//
//   - active: accepts message appends and turn requests (initial state)
//   - escalated: a human took over; history remains appendable
//   - closed: terminal; no further appends
//
// Messages are append-only and read back in strict insertion order. The
// Manager keeps no state in memory — the store is the sole source of truth —
// so a process restart against the same database is invisible to callers.
package session
