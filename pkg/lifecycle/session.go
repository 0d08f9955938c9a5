package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/cms"
	"github.com/juneof/promo-engine/pkg/metrics"
	"github.com/juneof/promo-engine/pkg/modal"
	"github.com/juneof/promo-engine/pkg/route"
	"github.com/juneof/promo-engine/pkg/store"
)

// State is the modal lifecycle state within one navigation cycle.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateEvaluating State = "evaluating"
	StateSuppressed State = "suppressed"
	StateScheduled  State = "scheduled"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// Snapshot is the view the presentation layer consumes. Rule is included
// only while the modal is open or scheduled; a suppressed cycle exposes
// nothing renderable.
type Snapshot struct {
	State      State       `json:"state"`
	IsOpen     bool        `json:"isOpen"`
	Rule       *modal.Rule `json:"rule,omitempty"`
	RouteScope string      `json:"routeScope,omitempty"`
	OpensInMS  int64       `json:"opensInMs,omitempty"`
}

// Session runs the modal lifecycle for one storefront tab: fetch on
// navigation, evaluate, optionally delay, open, persist on close. All
// transitions are guarded by a generation counter so a navigation strictly
// cancels any in-flight fetch or armed timer from the previous route
// (last navigation wins, no queueing).
type Session struct {
	mu sync.Mutex

	id        string
	visitorID string
	tracker   *route.Tracker
	source    cms.RuleSource
	store     *store.Store

	generation uint64
	state      State
	rule       *modal.Rule
	routeScope string // captured when the rule became eligible
	timer      *time.Timer
	opensAt    time.Time
	lastSeen   time.Time
}

// NewSession creates an idle session.
func NewSession(id, visitorID string, tracker *route.Tracker, source cms.RuleSource, st *store.Store) *Session {
	return &Session{
		id:        id,
		visitorID: visitorID,
		tracker:   tracker,
		source:    source,
		store:     st,
		state:     StateIdle,
		lastSeen:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Navigate runs one full lifecycle cycle for a new path and returns the
// resulting snapshot. A concurrent navigation supersedes this one; the
// superseded cycle's fetch result is discarded without transitioning state.
func (s *Session) Navigate(ctx context.Context, path string) Snapshot {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.cancelTimerLocked()
	s.state = StateLoading
	s.rule = nil
	s.routeScope = ""
	s.lastSeen = time.Now()
	// Tracker state must move with the generation bump: overlapping
	// navigations would otherwise race the tracker onto a superseded
	// route. Navigate publishes to the broker without blocking.
	rc := s.tracker.Navigate(path)
	s.mu.Unlock()

	// Fetch outside the lock; the generation guard below discards the
	// result if another navigation started meanwhile.
	start := time.Now()
	rule, err := s.source.FetchRuleForRoute(ctx, rc)
	metrics.RuleFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// Fetch failures resolve to "no promo"; never an error to the user.
		metrics.RuleFetchErrors.Inc()
		logrus.Warnf("session %s: rule fetch for %q failed: %v", s.id, rc.Slug, err)
		rule = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Superseded by a later navigation; report its state instead.
		return s.snapshotLocked()
	}

	s.state = StateEvaluating
	s.rule = rule
	s.evaluateLocked(ctx, gen, rc)
	return s.snapshotLocked()
}

// evaluateLocked applies suppression gates and eligibility to the fetched
// rule for the current generation, then opens or schedules the modal.
func (s *Session) evaluateLocked(ctx context.Context, gen uint64, rc route.Context) {
	if s.rule == nil {
		s.suppressLocked(metrics.OutcomeNoRule)
		return
	}

	scope := rc.Slug
	if s.store.HasSessionShown(ctx, s.id, s.rule, scope) {
		s.suppressLocked(metrics.OutcomeSessionSeen)
		return
	}
	if s.store.IsDismissed(ctx, s.visitorID, s.rule) {
		s.suppressLocked(metrics.OutcomeDismissed)
		return
	}

	_, pc := s.tracker.Current()
	if !modal.IsEligible(s.rule, rc, pc) {
		s.suppressLocked(metrics.OutcomeIneligible)
		return
	}

	// The scope the close handlers will persist with is fixed now, at the
	// moment the rule became eligible for this route.
	s.routeScope = scope

	if delay := s.rule.DisplayDelay(); delay > 0 {
		s.state = StateScheduled
		s.opensAt = time.Now().Add(delay)
		s.timer = time.AfterFunc(delay, func() { s.timerFired(gen) })
		metrics.DecisionsTotal.WithLabelValues(metrics.OutcomeScheduled).Inc()
		logrus.Debugf("session %s: modal %s scheduled to open in %v", s.id, s.rule.ID, delay)
		return
	}

	s.state = StateOpen
	metrics.DecisionsTotal.WithLabelValues(metrics.OutcomeOpen).Inc()
	logrus.Infof("session %s: modal %s opened on %q", s.id, s.rule.ID, scope)
}

func (s *Session) suppressLocked(outcome string) {
	s.state = StateSuppressed
	metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// timerFired completes a Scheduled → Open transition, unless a navigation
// superseded the cycle while the timer was armed.
func (s *Session) timerFired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != StateScheduled {
		return
	}
	s.state = StateOpen
	s.timer = nil
	metrics.DecisionsTotal.WithLabelValues(metrics.OutcomeOpen).Inc()
	logrus.Infof("session %s: modal %s opened after delay on %q", s.id, s.rule.ID, s.routeScope)
}

// HandleProductContext delivers an availability announcement. Accepted
// announcements re-evaluate the already-fetched rule within the same
// navigation cycle: a confirmed-unavailable product can turn a Suppressed
// cycle into Scheduled or Open, but never triggers a refetch and never
// disturbs a cycle that is already Scheduled, Open, or Closed.
func (s *Session) HandleProductContext(ctx context.Context, pc route.ProductContext) bool {
	if !s.tracker.Announce(pc) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	if s.state != StateEvaluating && s.state != StateSuppressed {
		return true
	}
	if s.rule == nil {
		return true
	}

	rc, _ := s.tracker.Current()
	s.evaluateLocked(ctx, s.generation, rc)
	return true
}

// Close records a user close or successful submission. Dismissal and
// session-shown markers are persisted exactly once, with the route scope
// captured at evaluation time.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	if s.state != StateOpen {
		return
	}

	s.store.PersistDismissal(ctx, s.visitorID, s.rule)
	s.store.MarkSessionShown(ctx, s.id, s.rule, s.routeScope)
	s.state = StateClosed
	logrus.Infof("session %s: modal %s closed on %q", s.id, s.rule.ID, s.routeScope)
}

// Snapshot returns the current lifecycle view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	switch s.state {
	case StateOpen:
		snap.IsOpen = true
		snap.Rule = s.rule
		snap.RouteScope = s.routeScope
	case StateScheduled:
		snap.Rule = s.rule
		snap.RouteScope = s.routeScope
		if remaining := time.Until(s.opensAt); remaining > 0 {
			snap.OpensInMS = remaining.Milliseconds()
		}
	}
	return snap
}

// shutdown cancels any armed timer; called when the manager evicts the
// session.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
