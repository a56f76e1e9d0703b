// Package escalation decides when a troubleshooting session must be handed
// to a human expert, and materializes that decision as a support ticket.
//
// Evaluate is a pure policy function over the turn's signals (confidence,
// completed steps, user feedback); CreateTicket performs the side effects:
// persist the ticket, notify the support channel, mark the session escalated.
// The split keeps the policy trivially testable and makes repeated evaluation
// of the same turn safe.
//
// Ticket creation is idempotent per session — the store's conditional insert
// guarantees at most one open ticket even under concurrent evaluation — and a
// failed notification never aborts it; the delivery outcome is recorded on
// the ticket instead.
package escalation
