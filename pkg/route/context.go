package route

import "strings"

// Context describes the storefront route a session is currently on.
// It is recomputed from the raw path on every navigation and never cached
// across navigations.
type Context struct {
	// Slug is the normalized path without leading or trailing slashes.
	// The root path is canonicalized as "/".
	Slug string `json:"slug"`

	// Handle is the product handle, present only when the path matches the
	// product-detail pattern "product/<handle>".
	Handle string `json:"handle,omitempty"`

	// IsProductPage is true iff Handle was derived from the path itself.
	IsProductPage bool `json:"isProductPage"`
}

// ProductContext carries availability data announced asynchronously by a
// product detail view. Its lifecycle is independent of Context: it arrives
// whenever the view has finished loading its product, and it must be
// discarded as soon as the session leaves the product route.
type ProductContext struct {
	Handle string `json:"handle"`

	// AvailableForSale is a tri-state: nil means the availability is not
	// known yet. Only a confirmed false satisfies pre-order targeting.
	AvailableForSale *bool `json:"availableForSale"`
}

// Derive computes the route context for a raw path. Only paths of the exact
// form "product/<handle>" (a single segment after "product") count as
// product pages; everything else yields a plain slug.
func Derive(path string) Context {
	normalized := strings.Trim(path, "/")
	if normalized == "" {
		return Context{Slug: "/"}
	}

	parts := strings.Split(normalized, "/")
	if len(parts) == 2 && parts[0] == "product" && parts[1] != "" {
		return Context{
			Slug:          normalized,
			Handle:        parts[1],
			IsProductPage: true,
		}
	}

	return Context{Slug: normalized}
}
