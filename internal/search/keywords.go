package search

import "strings"

// ParseKeywords splits an operator supplied keyword list on commas, semicolons and
// newlines, trims and lowercases each entry, and drops empties and duplicates.
// Order of first appearance is kept.
func ParseKeywords(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		kw := strings.ToLower(strings.TrimSpace(f))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return keywords
}
