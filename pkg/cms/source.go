package cms

import (
	"context"
	"sort"
	"time"

	"github.com/juneof/promo-engine/pkg/modal"
	"github.com/juneof/promo-engine/pkg/route"
)

// RuleSource fetches the highest-priority enabled modal rule matching a
// route. Implementations return (nil, nil) when no rule matches; an error
// means the source itself failed and the caller should treat the evaluation
// as "no rule" (the promo layer never surfaces fetch errors to users).
type RuleSource interface {
	FetchRuleForRoute(ctx context.Context, rc route.Context) (*modal.Rule, error)
}

// couldTarget is the server-side approximation of the targeting OR-clause:
// it keeps any rule whose slugs, handles, or product-page flags might match
// the route. The client-side eligibility check in pkg/modal remains the
// authority; this only prunes candidates.
func couldTarget(r *modal.Rule, rc route.Context) bool {
	variants := make(map[string]struct{})
	for _, v := range modal.SlugVariants(rc.Slug) {
		variants[modal.NormalizeSlug(v)] = struct{}{}
	}
	for _, s := range r.Slugs {
		if _, ok := variants[modal.NormalizeSlug(s)]; ok {
			return true
		}
	}

	if rc.Handle != "" {
		for _, h := range r.ShowOnProductHandles {
			if h == rc.Handle {
				return true
			}
		}
	}

	if rc.IsProductPage && (r.ShowOnAllProductPages || r.AllowOnPreOrderProductPages) {
		return true
	}

	return false
}

// scheduleOpen mirrors the server-side schedule predicate: rules without a
// schedule always pass, scheduled rules pass while inside their window, and
// unparseable bounds exclude the rule.
func scheduleOpen(r *modal.Rule, now time.Time) bool {
	if !r.EnableSchedule {
		return true
	}
	if r.StartAt != "" {
		start, err := time.Parse(time.RFC3339, r.StartAt)
		if err != nil || start.After(now) {
			return false
		}
	}
	if r.EndAt != "" {
		end, err := time.Parse(time.RFC3339, r.EndAt)
		if err != nil || end.Before(now) {
			return false
		}
	}
	return true
}

// SelectRule picks the active rule for a route from a candidate set:
// enabled, plausibly targeted, schedule-open, ordered by priority descending
// with most-recent creation breaking ties. Returns nil when nothing matches.
func SelectRule(rules []*modal.Rule, rc route.Context, now time.Time) *modal.Rule {
	var candidates []*modal.Rule
	for _, r := range rules {
		if r == nil || !r.Enabled {
			continue
		}
		if !couldTarget(r, rc) {
			continue
		}
		if !scheduleOpen(r, now) {
			continue
		}
		candidates = append(candidates, r)
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	return candidates[0]
}
