package models

import (
	"fmt"
	"strings"
)

// SearchQuery represents a keyword search request.
type SearchQuery struct {
	// Keywords is the raw comma separated keyword list as typed by the operator.
	Keywords string `json:"keywords"`
	// Algorithm selects the exact matcher: "kmp" or "bm". Empty means the configured default.
	Algorithm string `json:"algorithm,omitempty"`
	// TopN caps the number of ranked results. nil means the configured default; 0 returns no rows.
	TopN *int `json:"top_n,omitempty"`
}

// IntPtr returns a pointer to n, for optional fields such as SearchQuery.TopN.
func IntPtr(n int) *int {
	return &n
}

// Validate checks the query and fills defaults.
// defaultTopN is used when TopN is unset and maxTopN caps it; a maxTopN <= 0 disables the cap.
func (q *SearchQuery) Validate(defaultTopN, maxTopN int) error {
	if strings.TrimSpace(q.Keywords) == "" {
		return fmt.Errorf("keywords cannot be empty")
	}
	topN := defaultTopN
	if q.TopN != nil {
		topN = *q.TopN
	}
	if topN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", topN)
	}
	if maxTopN > 0 && topN > maxTopN {
		topN = maxTopN
	}
	q.TopN = &topN
	return nil
}
