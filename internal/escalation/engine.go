// ABOUTME: Escalation engine deciding when a human expert must take over
// ABOUTME: Evaluate is a pure policy function; CreateTicket materializes the decision

package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/induserve/assist/internal/lookup"
	"github.com/induserve/assist/internal/notify"
	"github.com/induserve/assist/internal/store"
)

// Reason is the closed set of escalation reasons.
type Reason string

const (
	ReasonUserRequest    Reason = "user_request"
	ReasonLowConfidence  Reason = "low_confidence"
	ReasonStepsExceeded  Reason = "steps_exceeded"
	ReasonSafetyConcern  Reason = "safety_concern"
	ReasonExpertRequired Reason = "expert_required"
)

// Priority is the closed set of ticket priorities, ordered low to urgent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Config holds the escalation thresholds.
type Config struct {
	// ConfidenceThreshold: confidence below this escalates with low_confidence.
	ConfidenceThreshold float64
	// MaxSteps: more completed steps than this escalates with steps_exceeded.
	MaxSteps int
}

// EvaluateInput carries the signals for one escalation decision.
type EvaluateInput struct {
	SessionID      string
	Confidence     float64 // assistant's self-assessed certainty, in [0,1]
	StepsCompleted int
	UserFeedback   string // free text; may be empty
	// ExpertRequired is set by upstream diagnostic logic when the problem is
	// outside automated scope.
	ExpertRequired bool
}

// Factors records the signals a decision was based on, for auditability.
type Factors struct {
	Confidence     float64 `json:"confidence"`
	StepsCompleted int     `json:"steps_completed"`
	SafetyRisk     bool    `json:"safety_risk"`
	HumanRequested bool    `json:"human_requested"`
}

// Decision is the outcome of Evaluate.
type Decision struct {
	ShouldEscalate bool
	Reason         Reason // empty when ShouldEscalate is false
	Priority       Priority
	Factors        Factors
}

// TicketResult is the outcome of CreateTicket.
type TicketResult struct {
	TicketID     string
	TicketNumber string
	Priority     Priority
	EmailSent    bool
	// AlreadyExisted is true when the session already had an open ticket and
	// that ticket was returned instead of a new one.
	AlreadyExisted bool
}

// safetyIndicators are substrings of user feedback that signal physical
// danger, across the supported languages. Matching is lowercase-contains.
var safetyIndicators = []string{
	"smoke", "fire", "burning", "spark", "electric shock", "leaking", "explosion",
	"rauch", "feuer", "brennt", "funken", "stromschlag",
	"fumée", "feu", "brûle", "étincelle",
	"humo", "fuego", "quema", "chispa",
	"fumo", "fuoco", "brucia", "scintill",
	"dym", "ogień", "pali się", "iskr",
}

// humanRequestIndicators are substrings that signal an explicit request for a
// human expert, across the supported languages.
var humanRequestIndicators = []string{
	"human", "real person", "speak to someone", "technician", "expert",
	"mensch", "techniker", "mitarbeiter",
	"humain", "technicien", "une personne",
	"humano", "técnico", "una persona",
	"umano", "tecnico",
	"człowiek", "technik", "człowiekiem",
}

// Engine decides on, and executes, hand-off to a human expert.
type Engine struct {
	cfg      Config
	store    store.Store
	users    lookup.UserLookup
	machines lookup.MachineLookup
	gateway  notify.Gateway
	logger   *slog.Logger
}

// NewEngine creates an escalation engine.
func NewEngine(cfg Config, st store.Store, users lookup.UserLookup, machines lookup.MachineLookup, gateway notify.Gateway) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    st,
		users:    users,
		machines: machines,
		gateway:  gateway,
		logger:   slog.Default().With("component", "escalation"),
	}
}

// Evaluate decides whether the session must be handed to a human expert.
// It is pure: no side effects, safe to call repeatedly for the same turn.
// Safety concerns take precedence over every other factor and force urgent
// priority.
func (e *Engine) Evaluate(in EvaluateInput) Decision {
	feedback := strings.ToLower(in.UserFeedback)

	factors := Factors{
		Confidence:     in.Confidence,
		StepsCompleted: in.StepsCompleted,
		SafetyRisk:     containsAny(feedback, safetyIndicators),
		HumanRequested: containsAny(feedback, humanRequestIndicators),
	}

	switch {
	case factors.SafetyRisk:
		return Decision{ShouldEscalate: true, Reason: ReasonSafetyConcern, Priority: PriorityUrgent, Factors: factors}
	case factors.HumanRequested:
		return Decision{ShouldEscalate: true, Reason: ReasonUserRequest, Priority: PriorityHigh, Factors: factors}
	case in.ExpertRequired:
		return Decision{ShouldEscalate: true, Reason: ReasonExpertRequired, Priority: PriorityHigh, Factors: factors}
	case in.Confidence < e.cfg.ConfidenceThreshold:
		priority := PriorityMedium
		if in.Confidence < e.cfg.ConfidenceThreshold/2 {
			priority = PriorityHigh
		}
		return Decision{ShouldEscalate: true, Reason: ReasonLowConfidence, Priority: priority, Factors: factors}
	case in.StepsCompleted > e.cfg.MaxSteps:
		return Decision{ShouldEscalate: true, Reason: ReasonStepsExceeded, Priority: PriorityMedium, Factors: factors}
	default:
		return Decision{Priority: PriorityLow, Factors: factors}
	}
}

// CreateTicket materializes an escalation decision as a persisted ticket,
// notifies the support channel, and marks the session escalated.
//
// Idempotent: if the session already has an open ticket, that ticket is
// returned and nothing else happens. Notification failure never aborts ticket
// creation; the outcome is recorded in EmailSent.
func (e *Engine) CreateTicket(ctx context.Context, sessionID string, reason Reason, priority Priority, notes string) (*TicketResult, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if existing, err := e.store.GetTicketBySession(ctx, sessionID); err == nil {
		return existingResult(existing), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing ticket: %w", err)
	}

	now := time.Now().UTC()
	ticket := &store.Ticket{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		TicketNumber: newTicketNumber(now),
		Reason:       string(reason),
		Priority:     string(priority),
		Notes:        notes,
		CreatedAt:    now,
	}

	if err := e.store.CreateTicket(ctx, ticket); err != nil {
		if errors.Is(err, store.ErrDuplicateTicket) {
			// Lost the race against a concurrent evaluation; return the winner
			existing, err := e.store.GetTicketBySession(ctx, sessionID)
			if err != nil {
				return nil, fmt.Errorf("fetching winning ticket: %w", err)
			}
			return existingResult(existing), nil
		}
		return nil, fmt.Errorf("persisting ticket: %w", err)
	}

	e.logger.Info("ticket created",
		"session_id", sessionID, "ticket_number", ticket.TicketNumber,
		"reason", string(reason), "priority", string(priority))

	delivered := e.deliver(ctx, sess, ticket)
	if delivered {
		if err := e.store.MarkTicketDelivered(ctx, ticket.ID, true); err != nil {
			e.logger.Error("failed to record delivery outcome", "ticket_id", ticket.ID, "error", err)
			delivered = false
		}
	}

	if err := e.store.UpdateSessionStatus(ctx, sessionID, store.StatusEscalated); err != nil {
		return nil, fmt.Errorf("marking session escalated: %w", err)
	}

	return &TicketResult{
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Priority:     priority,
		EmailSent:    delivered,
	}, nil
}

// deliver resolves the recipient and machine context and sends the
// notification. Every failure path degrades to delivered=false.
func (e *Engine) deliver(ctx context.Context, sess *store.Session, ticket *store.Ticket) bool {
	var recipient lookup.Contact
	if contact, err := e.users.GetUserContact(ctx, sess.UserID); err != nil {
		e.logger.Warn("user contact lookup failed", "user_id", sess.UserID, "error", err)
	} else {
		recipient = *contact
	}

	var machine *lookup.Machine
	if sess.MachineID != nil {
		var err error
		machine, err = e.machines.GetMachine(ctx, *sess.MachineID)
		if err != nil {
			e.logger.Warn("machine lookup failed", "machine_id", *sess.MachineID, "error", err)
		}
	}

	summary := notify.TicketSummary{
		TicketNumber:       ticket.TicketNumber,
		Reason:             ticket.Reason,
		Priority:           ticket.Priority,
		ProblemDescription: sess.ProblemDescription,
		Notes:              ticket.Notes,
		Language:           sess.Language,
		Machine:            machine,
		CreatedAt:          ticket.CreatedAt,
	}

	delivered, err := e.gateway.Send(ctx, summary, recipient)
	if err != nil {
		e.logger.Warn("ticket notification failed",
			"ticket_number", ticket.TicketNumber, "error", err)
		return false
	}
	return delivered
}

func existingResult(ticket *store.Ticket) *TicketResult {
	return &TicketResult{
		TicketID:       ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		Priority:       Priority(ticket.Priority),
		EmailSent:      ticket.EmailSent,
		AlreadyExisted: true,
	}
}

// newTicketNumber mints a human-presentable ticket number that sorts by
// creation time: TK-<UTC timestamp>-<random suffix>.
func newTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("TK-%s-%s", now.Format("20060102150405"), suffix)
}

func containsAny(s string, indicators []string) bool {
	for _, indicator := range indicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}
