package stats

import (
	"slices"
)

// FilterOptions lists the labels a UI can offer per dimension.
// Each list starts with All followed by the distinct labels, sorted.
type FilterOptions struct {
	SLATypes   []string `json:"sla_types"`
	Statuses   []string `json:"statuses"`
	Blocks     []string `json:"technology_blocks"`
	Priorities []string `json:"priorities"`
}

// Options collects the distinct labels present in records.
// Statuses always offer the full canonical set.
func Options(records []Request) FilterOptions {
	slaTypes := make(map[string]bool)
	blocks := make(map[string]bool)
	priorities := make(map[string]bool)

	for _, r := range records {
		for _, l := range SLATypeLabels(r) {
			slaTypes[l] = true
		}
		blocks[r.Block()] = true
		if r.Priority != "" {
			priorities[r.Priority] = true
		}
	}

	statuses := make([]string, 0, len(Statuses)+1)
	statuses = append(statuses, All)
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}

	return FilterOptions{
		SLATypes:   withAll(slaTypes),
		Statuses:   statuses,
		Blocks:     withAll(blocks),
		Priorities: withAll(priorities),
	}
}

func withAll(set map[string]bool) []string {
	labels := make([]string, 0, len(set))
	for k := range set {
		labels = append(labels, k)
	}
	slices.Sort(labels)
	return append([]string{All}, labels...)
}
