// ABOUTME: Matrix implementation of the notification gateway
// ABOUTME: Posts rendered ticket summaries to a configured support room

package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/induserve/assist/internal/lookup"
)

const sendTimeout = 30 * time.Second

// MatrixGateway delivers ticket notifications to a Matrix support room.
type MatrixGateway struct {
	client *mautrix.Client
	room   id.RoomID
	logger *slog.Logger
}

// NewMatrixGateway creates a gateway posting to the given room.
func NewMatrixGateway(homeserver, userID, accessToken, roomID string) (*MatrixGateway, error) {
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	return &MatrixGateway{
		client: client,
		room:   id.RoomID(roomID),
		logger: slog.Default().With("component", "notify"),
	}, nil
}

// Send posts the ticket summary to the support room. The plain-text body is
// the markdown summary; the formatted body is its HTML rendering.
func (g *MatrixGateway) Send(ctx context.Context, summary TicketSummary, recipient lookup.Contact) (bool, error) {
	md := FormatSummary(summary, recipient)

	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    md,
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &htmlBuf); err != nil {
		g.logger.Error("failed to render ticket summary", "error", err)
	} else {
		content.Format = event.FormatHTML
		content.FormattedBody = htmlBuf.String()
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := g.client.SendMessageEvent(sendCtx, g.room, event.EventMessage, content)
	if err != nil {
		g.logger.Error("failed to deliver ticket notification",
			"room", g.room.String(), "ticket", summary.TicketNumber, "error", err)
		return false, err
	}

	g.logger.Info("ticket notification delivered",
		"room", g.room.String(), "ticket", summary.TicketNumber)
	return true, nil
}
