package modal

import (
	"fmt"
	"time"
)

// Display delay units accepted in Rule.DisplayDelayUnit.
const (
	DelayUnitSeconds = "seconds"
	DelayUnitMinutes = "minutes"
)

// sessionSuffixFallback is used when a rule carries no usable identity at all.
const sessionSuffixFallback = "global"

// Rule is a CMS-authored promotional modal configuration. Targeting,
// schedule, session and dismissal fields drive the engine; everything
// presentational travels in Payload untouched.
type Rule struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	Priority  int       `json:"priority" yaml:"priority"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`

	// Targeting
	Slugs                       []string `json:"slugs,omitempty" yaml:"slugs,omitempty"`
	ShowOnProductHandles        []string `json:"showOnProductHandles,omitempty" yaml:"showOnProductHandles,omitempty"`
	ShowOnAllProductPages       bool     `json:"showOnAllProductPages" yaml:"showOnAllProductPages"`
	AllowOnPreOrderProductPages bool     `json:"allowOnPreOrderProductPages" yaml:"allowOnPreOrderProductPages"`

	// Schedule window. StartAt and EndAt are kept as the raw authored
	// strings and parsed at evaluation time so malformed values fail closed
	// instead of failing the whole fetch.
	EnableSchedule bool   `json:"enableSchedule" yaml:"enableSchedule"`
	StartAt        string `json:"startAt,omitempty" yaml:"startAt,omitempty"`
	EndAt          string `json:"endAt,omitempty" yaml:"endAt,omitempty"`

	// Session behavior
	ShowOncePerSession bool   `json:"showOncePerSession" yaml:"showOncePerSession"`
	SessionKeySuffix   string `json:"sessionKeySuffix,omitempty" yaml:"sessionKeySuffix,omitempty"`

	// Deferred open
	EnableDisplayDelay bool   `json:"enableDisplayDelay" yaml:"enableDisplayDelay"`
	DisplayDelayUnit   string `json:"displayDelayUnit,omitempty" yaml:"displayDelayUnit,omitempty"`
	DisplayDelayValue  int    `json:"displayDelayValue,omitempty" yaml:"displayDelayValue,omitempty"`

	// Durable suppression after dismissal
	EnableDismissDuration bool `json:"enableDismissDuration" yaml:"enableDismissDuration"`
	DismissDurationDays   int  `json:"dismissDurationDays,omitempty" yaml:"dismissDurationDays,omitempty"`

	// Payload holds the presentational fields (heading, CTA text, colors,
	// discount, images). The engine never inspects it.
	Payload map[string]interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// DisplayDelay returns the configured deferred-open duration, or zero when
// the delay is disabled or non-positive.
func (r *Rule) DisplayDelay() time.Duration {
	if r == nil || !r.EnableDisplayDelay || r.DisplayDelayValue <= 0 {
		return 0
	}
	if r.DisplayDelayUnit == DelayUnitMinutes {
		return time.Duration(r.DisplayDelayValue) * time.Minute
	}
	return time.Duration(r.DisplayDelayValue) * time.Second
}

// SessionSuffix returns the key suffix used to namespace per-session shown
// markers. The fallback chain mirrors the CMS authoring defaults:
// explicit suffix, then rule id, then name, then the first slug.
func (r *Rule) SessionSuffix() string {
	if r == nil {
		return sessionSuffixFallback
	}
	switch {
	case r.SessionKeySuffix != "":
		return r.SessionKeySuffix
	case r.ID != "":
		return r.ID
	case r.Name != "":
		return r.Name
	case len(r.Slugs) > 0 && r.Slugs[0] != "":
		return r.Slugs[0]
	}
	return sessionSuffixFallback
}

// scheduleWindow parses the rule's schedule bounds. A malformed timestamp is
// reported as an error so the caller can fail closed.
func (r *Rule) scheduleWindow() (start, end *time.Time, err error) {
	if r.StartAt != "" {
		t, perr := time.Parse(time.RFC3339, r.StartAt)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid startAt %q: %w", r.StartAt, perr)
		}
		start = &t
	}
	if r.EndAt != "" {
		t, perr := time.Parse(time.RFC3339, r.EndAt)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid endAt %q: %w", r.EndAt, perr)
		}
		end = &t
	}
	return start, end, nil
}
