package resolver

import (
	"strconv"
	"strings"
)

// Normalize folds a string for fuzzy comparison: lowercase, strip every
// character outside [a-z0-9]. Total function, empty input yields "".
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SynthesizeQueries builds the ordered, deduplicated list of search query
// strings for a track. Priority order is fixed: the most specific query
// (artist title album year) first, the title-first permutation last.
// Absent fields are omitted, so adjacent entries may collapse during
// dedup; the result always has between 1 and 4 entries.
func SynthesizeQueries(title, artist, album string, year int) []string {
	yearStr := ""
	if year > 0 {
		yearStr = strconv.Itoa(year)
	}

	candidates := []string{
		joinFields(artist, title, album, yearStr),
		joinFields(artist, title, yearStr),
		joinFields(artist, title),
		joinFields(title, artist),
	}

	queries := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, q := range candidates {
		if !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}
	return queries
}

// joinFields concatenates non-empty fields with single spaces.
func joinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
