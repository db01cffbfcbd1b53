package orchestrator

import (
	"context"
	"sync"

	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/messaging"
)

// guardedDispatcher wraps the real dispatcher for the duration of one turn.
// It enforces the exactly-one-reply invariant: the first send goes through,
// extra sends are suppressed and logged, and delivery failures are absorbed
// so the turn still completes. The engine checks Dispatched after the stage
// handler returns and issues a fallback when nothing went out.
type guardedDispatcher struct {
	inner   messaging.Dispatcher
	logger  logging.Logger
	metrics *Metrics

	mu       sync.Mutex
	attempts int
}

func newGuard(inner messaging.Dispatcher, logger logging.Logger, metrics *Metrics) *guardedDispatcher {
	return &guardedDispatcher{inner: inner, logger: logger, metrics: metrics}
}

func (g *guardedDispatcher) admit(ctx context.Context, to string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.attempts >= 1 {
		g.logger.Warn(ctx, "extra reply suppressed", "to", to)
		return false
	}
	g.attempts++
	return true
}

func (g *guardedDispatcher) Send(ctx context.Context, to string, body string) (*messaging.Receipt, error) {
	if !g.admit(ctx, to) {
		return &messaging.Receipt{}, nil
	}
	r, err := g.inner.Send(ctx, to, body)
	if err != nil {
		g.logger.Error(ctx, "delivery failed", "to", to, "error", err)
		g.metrics.CountDeliveryFailure()
		return &messaging.Receipt{}, nil
	}
	return r, nil
}

func (g *guardedDispatcher) SendFlow(ctx context.Context, to string, contentSID string, ctaText string) (*messaging.Receipt, error) {
	if !g.admit(ctx, to) {
		return &messaging.Receipt{}, nil
	}
	r, err := g.inner.SendFlow(ctx, to, contentSID, ctaText)
	if err != nil {
		g.logger.Error(ctx, "flow delivery failed", "to", to, "error", err)
		g.metrics.CountDeliveryFailure()
		return &messaging.Receipt{}, nil
	}
	return r, nil
}

// Dispatched reports whether the turn has produced its reply.
func (g *guardedDispatcher) Dispatched() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts > 0
}
