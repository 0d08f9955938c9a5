package modal

import (
	"testing"
	"time"
)

func TestSlugVariants(t *testing.T) {
	tests := []struct {
		slug string
		want []string
	}{
		{"/", []string{"/", ""}},
		{"", []string{"", "/"}},
		{"juneof-jacket", []string{"juneof-jacket", "/juneof-jacket", "product/juneof-jacket"}},
		{"/about/", []string{"/about/", "about", "/about", "product/about"}},
		{"product/juneof-jacket", []string{"product/juneof-jacket", "/product/juneof-jacket", "juneof-jacket"}},
		{"/product/juneof-jacket", []string{"/product/juneof-jacket", "product/juneof-jacket", "juneof-jacket"}},
	}

	for _, tt := range tests {
		got := SlugVariants(tt.slug)
		if len(got) != len(tt.want) {
			t.Errorf("SlugVariants(%q) = %v, expected %v", tt.slug, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SlugVariants(%q)[%d] = %q, expected %q", tt.slug, i, got[i], tt.want[i])
			}
		}
	}
}

func TestRule_DisplayDelay(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want time.Duration
	}{
		{"disabled", Rule{DisplayDelayValue: 10, DisplayDelayUnit: DelayUnitSeconds}, 0},
		{"zero value", Rule{EnableDisplayDelay: true, DisplayDelayUnit: DelayUnitSeconds}, 0},
		{"negative value", Rule{EnableDisplayDelay: true, DisplayDelayValue: -3}, 0},
		{"seconds", Rule{EnableDisplayDelay: true, DisplayDelayValue: 5, DisplayDelayUnit: DelayUnitSeconds}, 5 * time.Second},
		{"minutes", Rule{EnableDisplayDelay: true, DisplayDelayValue: 2, DisplayDelayUnit: DelayUnitMinutes}, 2 * time.Minute},
		{"unknown unit defaults to seconds", Rule{EnableDisplayDelay: true, DisplayDelayValue: 7, DisplayDelayUnit: "hours"}, 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.DisplayDelay(); got != tt.want {
				t.Errorf("DisplayDelay() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestRule_SessionSuffix(t *testing.T) {
	tests := []struct {
		name string
		rule *Rule
		want string
	}{
		{"explicit suffix", &Rule{ID: "m1", SessionKeySuffix: "modal_xyz"}, "modal_xyz"},
		{"falls back to id", &Rule{ID: "m1", Name: "spring"}, "m1"},
		{"falls back to name", &Rule{Name: "spring"}, "spring"},
		{"falls back to first slug", &Rule{Slugs: []string{"/", "about"}}, "/"},
		{"global fallback", &Rule{}, "global"},
		{"nil rule", nil, "global"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.SessionSuffix(); got != tt.want {
				t.Errorf("SessionSuffix() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	doc := map[string]interface{}{
		"_id":                         "modal-123",
		"modalName":                   "pre-order launch",
		"enabled":                     true,
		"priority":                    float64(10),
		"slugs":                       []interface{}{"/", "product/juneof-jacket"},
		"showOnProductHandles":        []interface{}{"juneof-jacket", 42},
		"showOnAllProductPages":       false,
		"allowOnPreOrderProductPages": true,
		"enableSchedule":              true,
		"startAt":                     "2026-08-01T00:00:00Z",
		"showOncePerSession":          true,
		"showOnceSessionKeySuffix":    "modal_abc",
		"enableDisplayDelay":          true,
		"displayDelayUnit":            "seconds",
		"displayDelayValue":           float64(5),
		"enableDismissDuration":       true,
		"dismissDurationDays":         float64(7),
		"_createdAt":                  "2026-07-15T09:30:00Z",
		"heading":                     "be the first",
		"ctaText":                     "keep me posted",
	}

	r, err := ParseRule(doc)
	if err != nil {
		t.Fatalf("ParseRule() error = %v", err)
	}

	if r.ID != "modal-123" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Name != "pre-order launch" {
		t.Errorf("Name = %q", r.Name)
	}
	if !r.Enabled || r.Priority != 10 {
		t.Errorf("Enabled=%v Priority=%d", r.Enabled, r.Priority)
	}
	if len(r.Slugs) != 2 || r.Slugs[1] != "product/juneof-jacket" {
		t.Errorf("Slugs = %v", r.Slugs)
	}
	// Non-string entries are dropped, not coerced.
	if len(r.ShowOnProductHandles) != 1 || r.ShowOnProductHandles[0] != "juneof-jacket" {
		t.Errorf("ShowOnProductHandles = %v", r.ShowOnProductHandles)
	}
	if !r.AllowOnPreOrderProductPages || r.ShowOnAllProductPages {
		t.Errorf("product-page flags wrong: %+v", r)
	}
	if r.SessionKeySuffix != "modal_abc" {
		t.Errorf("SessionKeySuffix = %q", r.SessionKeySuffix)
	}
	if r.DisplayDelay() != 5*time.Second {
		t.Errorf("DisplayDelay() = %v", r.DisplayDelay())
	}
	if r.DismissDurationDays != 7 {
		t.Errorf("DismissDurationDays = %d", r.DismissDurationDays)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
	if r.Payload["heading"] != "be the first" || r.Payload["ctaText"] != "keep me posted" {
		t.Errorf("Payload = %v", r.Payload)
	}
}

func TestParseRule_Invalid(t *testing.T) {
	if _, err := ParseRule(nil); err == nil {
		t.Error("expected error for nil document")
	}
	if _, err := ParseRule(map[string]interface{}{"enabled": true}); err == nil {
		t.Error("expected error for document without id")
	}
}

func TestParseRule_SparseDocumentFailsClosed(t *testing.T) {
	r, err := ParseRule(map[string]interface{}{"_id": "m1"})
	if err != nil {
		t.Fatalf("ParseRule() error = %v", err)
	}
	if r.Enabled {
		t.Error("missing enabled flag should parse as disabled")
	}
	if r.Priority != 0 {
		t.Errorf("missing priority should default to 0, got %d", r.Priority)
	}
}
