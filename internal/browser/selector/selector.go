// Package selector turns raw locator strings copied from a page into typed
// selectors that every other browser component accepts.
package selector

import (
	"strings"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

const (
	xpathPrefix = string(schemas.PathQuery) + "="
	cssPrefix   = string(schemas.StructuralQuery) + "="
)

// Normalize converts a raw locator into a Selector. It never fails and is
// idempotent: Normalize(Normalize(s).String()) == Normalize(s).
//
// An explicit "xpath=" or "css=" prefix is honored as given. Otherwise a
// leading "/" marks a path query and anything else is a structural query.
func Normalize(raw string) schemas.Selector {
	s := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(s, xpathPrefix):
		return schemas.Selector{Kind: schemas.PathQuery, Expression: strings.TrimSpace(s[len(xpathPrefix):])}
	case strings.HasPrefix(s, cssPrefix):
		return schemas.Selector{Kind: schemas.StructuralQuery, Expression: strings.TrimSpace(s[len(cssPrefix):])}
	case strings.HasPrefix(s, "/"):
		return schemas.Selector{Kind: schemas.PathQuery, Expression: s}
	default:
		return schemas.Selector{Kind: schemas.StructuralQuery, Expression: s}
	}
}

// IsPath reports whether the raw locator normalizes to a path query.
func IsPath(raw string) bool {
	return Normalize(raw).Kind == schemas.PathQuery
}

// All normalizes a set of raw locators, preserving order.
func All(raws ...string) []schemas.Selector {
	out := make([]schemas.Selector, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}
