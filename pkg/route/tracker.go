package route

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Tracker maintains one session's route context and its asynchronously
// announced product context. Navigations are synchronous; announcements may
// arrive at any time and are accepted only while the current route is the
// announced product's page, so a late answer for a previous product can
// never leak into evaluations on other routes.
type Tracker struct {
	mu        sync.Mutex
	broker    *Broker
	sessionID string
	ctx       Context
	product   *ProductContext
}

// NewTracker creates a tracker for a session. The broker may be nil when no
// responder is wired (announcements then only arrive via Announce calls from
// the API).
func NewTracker(broker *Broker, sessionID string) *Tracker {
	return &Tracker{broker: broker, sessionID: sessionID}
}

// Navigate recomputes the route context for a new path. Any previously
// received product context is cleared; on product routes a context request
// is broadcast so an active responder can announce availability.
func (t *Tracker) Navigate(path string) Context {
	t.mu.Lock()
	t.ctx = Derive(path)
	t.product = nil
	ctx := t.ctx
	t.mu.Unlock()

	if ctx.IsProductPage && t.broker != nil {
		t.broker.Publish(ContextRequest{SessionID: t.sessionID, Handle: ctx.Handle})
	}
	return ctx
}

// Announce delivers a product context announcement. It reports whether the
// announcement was accepted; mismatched or off-product-route announcements
// are dropped by scope.
func (t *Tracker) Announce(pc ProductContext) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ctx.IsProductPage || t.ctx.Handle != pc.Handle {
		logrus.Debugf("session %s: dropping stale product context for %q (current route %q)",
			t.sessionID, pc.Handle, t.ctx.Slug)
		return false
	}

	copied := pc
	t.product = &copied
	return true
}

// Current returns the route context and, when present, the accepted product
// context for the route.
func (t *Tracker) Current() (Context, *ProductContext) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.product == nil {
		return t.ctx, nil
	}
	copied := *t.product
	return t.ctx, &copied
}
