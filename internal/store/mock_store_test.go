// ABOUTME: Tests that MockStore matches SQLiteStore behavior
// ABOUTME: Covers the invariants components rely on in unit tests

package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMockStore_SessionLifecycle(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if _, err := m.GetSession(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := m.CreateSession(ctx, testSession("s1")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := m.UpdateSessionStatus(ctx, "s1", StatusEscalated); err != nil {
		t.Fatalf("UpdateSessionStatus failed: %v", err)
	}

	got, err := m.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != StatusEscalated {
		t.Errorf("Status mismatch: got %q", got.Status)
	}
}

func TestMockStore_MessageOrderAndClosedSession(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if err := m.CreateSession(ctx, testSession("s2")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		msg := &Message{ID: fmt.Sprintf("m%d", i), SessionID: "s2", Sender: SenderUser,
			Content: fmt.Sprintf("msg %d", i), Type: MessageTypeText, Language: "en",
			CreatedAt: time.Now().UTC()}
		if err := m.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage %d failed: %v", i, err)
		}
	}

	msgs, err := m.GetSessionMessages(ctx, "s2")
	if err != nil {
		t.Fatalf("GetSessionMessages failed: %v", err)
	}
	for i, msg := range msgs {
		if msg.Content != fmt.Sprintf("msg %d", i) {
			t.Errorf("position %d: got %q", i, msg.Content)
		}
	}

	if err := m.UpdateSessionStatus(ctx, "s2", StatusClosed); err != nil {
		t.Fatalf("UpdateSessionStatus failed: %v", err)
	}
	late := &Message{ID: "late", SessionID: "s2", Sender: SenderUser,
		Content: "too late", Type: MessageTypeText, Language: "en", CreatedAt: time.Now().UTC()}
	if err := m.SaveMessage(ctx, late); err != ErrSessionClosed {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestMockStore_TicketUniqueness(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if err := m.CreateSession(ctx, testSession("s3")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	first := &Ticket{ID: "t1", SessionID: "s3", TicketNumber: "TK-1", Reason: "user_request",
		Priority: "high", CreatedAt: time.Now().UTC()}
	if err := m.CreateTicket(ctx, first); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	second := &Ticket{ID: "t2", SessionID: "s3", TicketNumber: "TK-2", Reason: "user_request",
		Priority: "high", CreatedAt: time.Now().UTC()}
	if err := m.CreateTicket(ctx, second); err != ErrDuplicateTicket {
		t.Errorf("expected ErrDuplicateTicket, got %v", err)
	}

	if err := m.MarkTicketDelivered(ctx, "t1", true); err != nil {
		t.Fatalf("MarkTicketDelivered failed: %v", err)
	}
	got, err := m.GetTicket(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}
	if !got.EmailSent {
		t.Error("expected EmailSent true")
	}
}
