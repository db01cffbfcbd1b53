package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/momentum-ia/momentum/internal/logging"
)

func newTestGuard(d *fakeDispatcher) *guardedDispatcher {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return newGuard(d, logger, nil)
}

func TestGuard_FirstSendGoesThrough(t *testing.T) {
	d := &fakeDispatcher{}
	g := newTestGuard(d)

	r, err := g.Send(context.Background(), "whatsapp:+1555", "hello")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if r.SID == "" {
		t.Fatalf("receipt not passed through")
	}
	if !g.Dispatched() {
		t.Fatalf("guard did not record the dispatch")
	}
}

func TestGuard_ExtraSendsSuppressed(t *testing.T) {
	d := &fakeDispatcher{}
	g := newTestGuard(d)

	g.Send(context.Background(), "whatsapp:+1555", "first")
	g.Send(context.Background(), "whatsapp:+1555", "second")
	g.SendFlow(context.Background(), "whatsapp:+1555", "HX1", "cta")

	if len(d.sent)+len(d.flows) != 1 {
		t.Fatalf("expected exactly one delivery, got %d sends and %d flows", len(d.sent), len(d.flows))
	}
}

func TestGuard_DeliveryFailureAbsorbed(t *testing.T) {
	d := &fakeDispatcher{sendErr: errors.New("twilio 500")}
	g := newTestGuard(d)

	_, err := g.Send(context.Background(), "whatsapp:+1555", "hello")
	if err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}
	if !g.Dispatched() {
		t.Fatalf("failed attempt still counts as the turn's reply")
	}
}

func TestGuard_FlowCountsAsTheReply(t *testing.T) {
	d := &fakeDispatcher{}
	g := newTestGuard(d)

	g.SendFlow(context.Background(), "whatsapp:+1555", "HX1", "Submit Proof")
	g.Send(context.Background(), "whatsapp:+1555", "extra")

	if len(d.flows) != 1 || len(d.sent) != 0 {
		t.Fatalf("expected one flow and no plain sends, got %d/%d", len(d.flows), len(d.sent))
	}
}
