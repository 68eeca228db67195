package stats

import "strings"

// EqualFold returns true if s1 and s2 are equal under Unicode case-folding.
func EqualFold(s1, s2 string) bool {
	return strings.EqualFold(s1, s2)
}

// normalizeLabel lower-cases and trims a catalog label for comparisons.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PreferLabel returns the label if non-empty, otherwise the fallback.
func PreferLabel(label, fallback string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return fallback
}
