package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func TestIngestedMessageCarriesPublishTime(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := newIngestedMessage("invoices.ingested", "inv-1", published)

	if string(msg.Data) != "inv-1" {
		t.Fatalf("unexpected payload %q", msg.Data)
	}
	lag, ok := deliveryLag(msg, published.Add(1500*time.Millisecond))
	if !ok || lag != 1500*time.Millisecond {
		t.Fatalf("deliveryLag() = %v, %v", lag, ok)
	}
}

func TestDeliveryLagIgnoresMessagesWithoutHeader(t *testing.T) {
	if _, ok := deliveryLag(&nats.Msg{Data: []byte("inv-1")}, time.Now()); ok {
		t.Fatalf("expected no lag without header")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrNoServers))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); !errors.Is(got, permanent) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("permanent error must pass through, got %v", got)
	}

	if got := wrapTemporaryIfNeeded(context.Canceled); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("cancellation must not become temporary")
	}
	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
