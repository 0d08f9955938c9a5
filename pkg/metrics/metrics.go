package metrics

import "github.com/prometheus/client_golang/prometheus"

// Decision outcomes recorded per navigation cycle.
const (
	OutcomeNoRule      = "no_rule"
	OutcomeSessionSeen = "session_shown"
	OutcomeDismissed   = "dismissed"
	OutcomeIneligible  = "ineligible"
	OutcomeScheduled   = "scheduled"
	OutcomeOpen        = "open"
)

var (
	// DecisionsTotal counts navigation-cycle outcomes.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_modal_decisions_total",
			Help: "Total number of modal evaluation outcomes",
		},
		[]string{"outcome"},
	)

	// RuleFetchDuration observes CMS rule fetch latency.
	RuleFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promo_modal_rule_fetch_duration_seconds",
			Help:    "Latency of rule fetches from the rule source",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RuleFetchErrors counts failed rule fetches (degraded to "no rule").
	RuleFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_modal_rule_fetch_errors_total",
			Help: "Total number of rule fetch failures",
		},
	)

	// SessionsActive tracks sessions currently held by the manager.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "promo_engine_sessions_active",
			Help: "Number of active modal sessions",
		},
	)

	// WebhookEventsTotal counts incoming order webhook deliveries.
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_engine_webhook_events_total",
			Help: "Total number of order webhook deliveries",
		},
		[]string{"result"},
	)

	// PreorderCapturesTotal counts captured pre-order interests.
	PreorderCapturesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_engine_preorder_captures_total",
			Help: "Total number of captured pre-order interests",
		},
	)
)

// Register adds all engine collectors to a registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		DecisionsTotal,
		RuleFetchDuration,
		RuleFetchErrors,
		SessionsActive,
		WebhookEventsTotal,
		PreorderCapturesTotal,
	)
}
