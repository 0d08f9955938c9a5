package commerce

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/route"
)

// AvailabilityLookup resolves a product handle to its purchasability.
type AvailabilityLookup interface {
	ProductAvailability(ctx context.Context, handle string) (*bool, error)
}

// Announcer delivers resolved product context back to the owning session.
type Announcer interface {
	AnnounceProductContext(ctx context.Context, sessionID string, pc route.ProductContext) bool
}

// Responder answers product-context requests published on the broker by
// querying the commerce platform. Sessions whose product pages never get a
// client-side announcement still learn availability this way.
type Responder struct {
	broker    *route.Broker
	lookup    AvailabilityLookup
	announcer Announcer
	timeout   time.Duration
}

// NewResponder creates a responder. It does nothing until Run is called.
func NewResponder(broker *route.Broker, lookup AvailabilityLookup, announcer Announcer) *Responder {
	return &Responder{
		broker:    broker,
		lookup:    lookup,
		announcer: announcer,
		timeout:   5 * time.Second,
	}
}

// Run consumes requests until the context is cancelled or the broker is
// closed.
func (r *Responder) Run(ctx context.Context) {
	requests, unsubscribe := r.broker.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			r.respond(ctx, req)
		}
	}
}

func (r *Responder) respond(ctx context.Context, req route.ContextRequest) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	available, err := r.lookup.ProductAvailability(lookupCtx, req.Handle)
	if err != nil {
		logrus.Warnf("availability lookup failed for %q: %v", req.Handle, err)
		return
	}
	if available == nil {
		logrus.Debugf("no availability for unknown product %q", req.Handle)
		return
	}

	pc := route.ProductContext{Handle: req.Handle, AvailableForSale: available}
	if !r.announcer.AnnounceProductContext(ctx, req.SessionID, pc) {
		logrus.Debugf("availability announcement dropped: session=%s handle=%s", req.SessionID, req.Handle)
	}
}
