package modal

import (
	"fmt"
	"time"
)

// consumedFields are the document keys the engine interprets. Everything
// else is presentational and is carried through in Rule.Payload.
var consumedFields = map[string]struct{}{
	"_id": {}, "id": {},
	"_createdAt": {}, "createdAt": {},
	"modalName": {}, "name": {},
	"enabled":  {},
	"priority": {},
	"slugs":    {}, "showOnProductHandles": {},
	"showOnAllProductPages":       {},
	"allowOnPreOrderProductPages": {},
	"enableSchedule":              {}, "startAt": {}, "endAt": {},
	"showOncePerSession": {}, "showOnceSessionKeySuffix": {}, "sessionKeySuffix": {},
	"enableDisplayDelay": {}, "displayDelayUnit": {}, "displayDelayValue": {},
	"enableDismissDuration": {}, "dismissDurationDays": {},
}

// ParseRule validates an untyped CMS document into a Rule at the fetch
// boundary. A document without a stable id is rejected; a missing enabled
// flag parses as disabled and a missing priority as zero, so a sparse
// document can never become more visible than an explicit one.
func ParseRule(doc map[string]interface{}) (*Rule, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil modal document")
	}

	id := stringField(doc, "_id")
	if id == "" {
		id = stringField(doc, "id")
	}
	if id == "" {
		return nil, fmt.Errorf("modal document has no id")
	}

	r := &Rule{
		ID:       id,
		Name:     firstString(doc, "modalName", "name"),
		Enabled:  boolField(doc, "enabled"),
		Priority: intField(doc, "priority"),

		Slugs:                       stringSliceField(doc, "slugs"),
		ShowOnProductHandles:        stringSliceField(doc, "showOnProductHandles"),
		ShowOnAllProductPages:       boolField(doc, "showOnAllProductPages"),
		AllowOnPreOrderProductPages: boolField(doc, "allowOnPreOrderProductPages"),

		EnableSchedule: boolField(doc, "enableSchedule"),
		StartAt:        stringField(doc, "startAt"),
		EndAt:          stringField(doc, "endAt"),

		ShowOncePerSession: boolField(doc, "showOncePerSession"),
		SessionKeySuffix:   firstString(doc, "showOnceSessionKeySuffix", "sessionKeySuffix"),

		EnableDisplayDelay: boolField(doc, "enableDisplayDelay"),
		DisplayDelayUnit:   stringField(doc, "displayDelayUnit"),
		DisplayDelayValue:  intField(doc, "displayDelayValue"),

		EnableDismissDuration: boolField(doc, "enableDismissDuration"),
		DismissDurationDays:   intField(doc, "dismissDurationDays"),
	}

	if createdAt := firstString(doc, "_createdAt", "createdAt"); createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
	}

	for k, v := range doc {
		if _, ok := consumedFields[k]; ok {
			continue
		}
		if r.Payload == nil {
			r.Payload = make(map[string]interface{})
		}
		r.Payload[k] = v
	}

	return r, nil
}

func stringField(doc map[string]interface{}, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func firstString(doc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := stringField(doc, k); s != "" {
			return s
		}
	}
	return ""
}

func boolField(doc map[string]interface{}, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func intField(doc map[string]interface{}, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		// JSON numbers decode as float64
		return int(v)
	}
	return 0
}

func stringSliceField(doc map[string]interface{}, key string) []string {
	raw, ok := doc[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
