package modal

import "strings"

// NormalizeSlug strips leading and trailing slashes from a path. The root
// path normalizes to the empty string.
func NormalizeSlug(slug string) string {
	return strings.Trim(slug, "/")
}

// SlugVariants expands a route slug into its equivalent path forms: the raw
// input, the normalized form, the leading-slash form, the product-prefixed
// form, and — for product routes — the bare handle.
// "product/juneof-jacket" therefore expands to ["product/juneof-jacket",
// "/product/juneof-jacket", "juneof-jacket", ...] style sets, deduplicated
// in insertion order.
func SlugVariants(slug string) []string {
	normalized := NormalizeSlug(slug)

	var variants []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	if slug != "" {
		add(slug)
	}
	add(normalized)
	if normalized != "" {
		add("/" + normalized)
		if handle := strings.TrimPrefix(normalized, "product/"); handle != normalized {
			if handle != "" {
				add(handle)
			}
		} else {
			add("product/" + normalized)
		}
	} else {
		add("/")
	}

	return variants
}

// slugsMatch reports whether any variant of the route slug is a member of
// the rule's slug set. Both sides are compared in normalized form so "/x",
// "x" and "x/" authored in the CMS are equivalent.
func slugsMatch(ruleSlugs []string, routeSlug string) bool {
	if len(ruleSlugs) == 0 {
		return false
	}

	normalizedRule := make(map[string]struct{}, len(ruleSlugs))
	for _, s := range ruleSlugs {
		normalizedRule[NormalizeSlug(s)] = struct{}{}
	}

	for _, v := range SlugVariants(routeSlug) {
		if _, ok := normalizedRule[NormalizeSlug(v)]; ok {
			return true
		}
	}
	return false
}
