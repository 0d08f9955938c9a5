package route

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// requestBuffer bounds each subscriber's pending request queue. A responder
// that falls behind loses requests; the affected sessions simply keep an
// unknown availability, which never satisfies pre-order targeting.
const requestBuffer = 16

// ContextRequest is broadcast when a session lands on a product route and
// the engine wants that product's availability.
type ContextRequest struct {
	SessionID string
	Handle    string
}

// Broker is the in-process publish/subscribe channel behind the
// product-context handshake: trackers publish requests, responders (for
// example a commerce availability responder) answer by announcing product
// context back to the owning session.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int]chan ContextRequest
	nextID      int
	closed      bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int]chan ContextRequest)}
}

// Subscribe registers a responder and returns its request channel along with
// an unsubscribe function. The channel is closed on unsubscribe or broker
// shutdown.
func (b *Broker) Subscribe() (<-chan ContextRequest, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ContextRequest, requestBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish fans a context request out to all subscribers without blocking.
func (b *Broker) Publish(req ContextRequest) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- req:
		default:
			logrus.Warnf("dropping product context request for session %s: responder queue full", req.SessionID)
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
