// Package filter narrows a normalized record set for the tabular view.
//
// Filtering is a full scan on every call. Feeds are curated by hand and hold
// tens to hundreds of rows, so no index is kept.
package filter

import (
	"strings"

	"github.com/minaironcapital/dividendos/internal/types"
)

// State is the current filter selection of a presentation layer.
type State struct {
	// Query is matched case-insensitively against "ticker empresa".
	Query string `json:"q"`

	// Status must equal estado exactly. Empty means no facet.
	Status string `json:"estado"`
}

// Matches reports whether a single record passes the filter.
func (s State) Matches(r types.Record) bool {
	if s.Status != "" && r.Estado != s.Status {
		return false
	}
	if s.Query == "" {
		return true
	}
	haystack := strings.ToLower(r.Ticker + " " + r.Empresa)
	return strings.Contains(haystack, strings.ToLower(s.Query))
}

// Apply returns the records matching state, in their original order.
// The result is never nil.
func Apply(records []types.Record, state State) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if state.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Statuses returns the distinct non-empty estado values in encounter order.
func Statuses(records []types.Record) []string {
	seen := make(map[string]bool)
	statuses := []string{}
	for _, r := range records {
		if r.Estado == "" || seen[r.Estado] {
			continue
		}
		seen[r.Estado] = true
		statuses = append(statuses, r.Estado)
	}
	return statuses
}
