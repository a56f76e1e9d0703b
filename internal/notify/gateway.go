// ABOUTME: Notification gateway interface and ticket summary formatting
// ABOUTME: Delivery failures are reported, never raised - tickets persist regardless

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/induserve/assist/internal/lookup"
)

// TicketSummary is the data delivered to the human support channel.
type TicketSummary struct {
	TicketNumber       string
	Reason             string
	Priority           string
	ProblemDescription string
	Notes              string
	Language           string
	Machine            *lookup.Machine // nil when the session has no machine
	CreatedAt          time.Time
}

// Gateway delivers ticket data to a human support channel.
// Send reports whether delivery succeeded; implementations must not panic
// and should return delivered=false rather than blocking ticket creation.
type Gateway interface {
	Send(ctx context.Context, summary TicketSummary, recipient lookup.Contact) (delivered bool, err error)
}

// NoopGateway reports success without delivering anything. Used in tests and
// when no support channel is configured.
type NoopGateway struct{}

func (NoopGateway) Send(ctx context.Context, summary TicketSummary, recipient lookup.Contact) (bool, error) {
	return true, nil
}

// FormatSummary renders a ticket summary as markdown for the support channel.
func FormatSummary(summary TicketSummary, recipient lookup.Contact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Escalation %s\n\n", summary.TicketNumber)
	fmt.Fprintf(&b, "**Reason:** %s  \n", summary.Reason)
	fmt.Fprintf(&b, "**Priority:** %s  \n", summary.Priority)
	fmt.Fprintf(&b, "**Language:** %s  \n", summary.Language)
	fmt.Fprintf(&b, "**Opened:** %s\n\n", summary.CreatedAt.UTC().Format(time.RFC3339))

	if recipient.Name != "" {
		fmt.Fprintf(&b, "**Customer:** %s", recipient.Name)
		if recipient.Organization != "" {
			fmt.Fprintf(&b, " (%s)", recipient.Organization)
		}
		if recipient.Email != "" {
			fmt.Fprintf(&b, " <%s>", recipient.Email)
		}
		b.WriteString("\n")
	}

	if summary.Machine != nil {
		fmt.Fprintf(&b, "**Machine:** %s, model %s, serial %s\n",
			summary.Machine.Name, summary.Machine.Model, summary.Machine.SerialNumber)
	}

	fmt.Fprintf(&b, "\n**Problem:**\n%s\n", summary.ProblemDescription)

	if summary.Notes != "" {
		fmt.Fprintf(&b, "\n**Notes:**\n%s\n", summary.Notes)
	}

	return b.String()
}
