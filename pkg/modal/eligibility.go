package modal

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/route"
)

// IsEligible decides whether a rule may show on the current route. Targeting
// is an OR across the independent methods (blanket product-page flags,
// explicit slugs, explicit handles) so editors can combine strategies; the
// schedule window is an AND gate layered on top. There is no implicit
// fallback: a rule that matches no targeting method never shows.
func IsEligible(r *Rule, rc route.Context, pc *route.ProductContext) bool {
	return isEligibleAt(r, rc, pc, time.Now())
}

func isEligibleAt(r *Rule, rc route.Context, pc *route.ProductContext, now time.Time) bool {
	if r == nil || !r.Enabled {
		return false
	}

	matched := false

	if r.ShowOnAllProductPages && rc.IsProductPage && rc.Handle != "" {
		matched = true
	}

	// Pre-order targeting requires a confirmed-unavailable product; an
	// unknown availability never qualifies.
	if !matched && r.AllowOnPreOrderProductPages && rc.IsProductPage && rc.Handle != "" &&
		pc != nil && pc.AvailableForSale != nil && !*pc.AvailableForSale {
		matched = true
	}

	if !matched && slugsMatch(r.Slugs, rc.Slug) {
		matched = true
	}

	if !matched && rc.Handle != "" {
		for _, h := range r.ShowOnProductHandles {
			if h == rc.Handle {
				matched = true
				break
			}
		}
	}

	if !matched {
		return false
	}

	if r.EnableSchedule {
		start, end, err := r.scheduleWindow()
		if err != nil {
			// Fail closed: a rule with an unparseable window must never
			// show outside its intended schedule.
			logrus.Warnf("modal %s has malformed schedule, treating as ineligible: %v", r.ID, err)
			return false
		}
		if start != nil && start.After(now) {
			return false
		}
		if end != nil && end.Before(now) {
			return false
		}
	}

	return true
}
