package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/modal"
)

const (
	// dismissKeyPrefix namespaces durable dismissal expiries per visitor.
	dismissKeyPrefix = "promo_modal:dismiss:"
	// sessionKeyPrefix namespaces per-session shown markers.
	sessionKeyPrefix = "promo_modal:session_shown:"

	// globalScope is used when a session marker carries no route scope,
	// yielding session-wide suppression.
	globalScope = "global"
)

// KV is the minimal key-value contract the suppression stores need. A zero
// TTL on Set means "no expiry".
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// Store persists modal suppression state: durable dismissal expiries keyed
// by visitor, and ephemeral session-shown markers keyed by session. Every
// operation degrades silently on storage failure; a broken store can only
// ever make the engine show nothing it was not already allowed to show.
type Store struct {
	durable    KV
	session    KV
	sessionTTL time.Duration
}

// New creates a suppression store. sessionTTL bounds the lifetime of session
// markers; dismissal expiries carry their own per-rule TTL.
func New(durable, session KV, sessionTTL time.Duration) *Store {
	return &Store{durable: durable, session: session, sessionTTL: sessionTTL}
}

func dismissKey(visitorID, ruleID string) string {
	return fmt.Sprintf("%s%s:%s", dismissKeyPrefix, visitorID, ruleID)
}

func sessionKey(sessionID, suffix, routeScope string) string {
	scope := modal.NormalizeSlug(routeScope)
	if scope == "" {
		scope = globalScope
	}
	return fmt.Sprintf("%s%s:%s:%s", sessionKeyPrefix, sessionID, suffix, scope)
}

// PersistDismissal records a durable suppression window for a dismissed
// rule. It is a no-op unless the rule enables a dismiss duration.
func (s *Store) PersistDismissal(ctx context.Context, visitorID string, r *modal.Rule) {
	if r == nil || !r.EnableDismissDuration || r.DismissDurationDays <= 0 {
		return
	}

	ttl := time.Duration(r.DismissDurationDays) * 24 * time.Hour
	expiry := time.Now().Add(ttl).UnixMilli()
	key := dismissKey(visitorID, r.ID)

	if err := s.durable.Set(ctx, key, strconv.FormatInt(expiry, 10), ttl); err != nil {
		logrus.Warnf("failed to persist dismissal for modal %s: %v", r.ID, err)
	}
}

// IsDismissed reports whether a valid dismissal window exists for the rule.
// Storage errors and unparseable values degrade to "not dismissed".
func (s *Store) IsDismissed(ctx context.Context, visitorID string, r *modal.Rule) bool {
	if r == nil || !r.EnableDismissDuration {
		return false
	}

	raw, ok, err := s.durable.Get(ctx, dismissKey(visitorID, r.ID))
	if err != nil {
		logrus.Warnf("failed to read dismissal for modal %s: %v", r.ID, err)
		return false
	}
	if !ok {
		return false
	}

	expiry, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return time.Now().UnixMilli() < expiry
}

// MarkSessionShown sets the once-per-session marker for a rule within a
// route scope. Marking is idempotent; it is a no-op unless the rule opts in.
func (s *Store) MarkSessionShown(ctx context.Context, sessionID string, r *modal.Rule, routeScope string) {
	if r == nil || !r.ShowOncePerSession {
		return
	}

	key := sessionKey(sessionID, r.SessionSuffix(), routeScope)
	if err := s.session.Set(ctx, key, "1", s.sessionTTL); err != nil {
		logrus.Warnf("failed to mark session shown for modal %s: %v", r.ID, err)
	}
}

// HasSessionShown reports whether the rule has already shown this session
// within the given route scope.
func (s *Store) HasSessionShown(ctx context.Context, sessionID string, r *modal.Rule, routeScope string) bool {
	if r == nil || !r.ShowOncePerSession {
		return false
	}

	_, ok, err := s.session.Get(ctx, sessionKey(sessionID, r.SessionSuffix(), routeScope))
	if err != nil {
		logrus.Warnf("failed to read session marker for modal %s: %v", r.ID, err)
		return false
	}
	return ok
}
