package report

import (
	"strings"
)

// ColumnID identifies a column a user can include in a report table.
type ColumnID string

const (
	ColBlock             ColumnID = "block"
	ColRequestCount      ColumnID = "request_count"
	ColCompliancePct     ColumnID = "compliance_pct"
	ColAvgElapsedDays    ColumnID = "avg_elapsed_days"
	ColMeetsBar          ColumnID = "meets_bar"
	ColNonCompliantCount ColumnID = "non_compliant_count"
	ColPctOfNonCompliant ColumnID = "pct_of_non_compliant"
	ColAvgOverageDays    ColumnID = "avg_overage_days"
	ColMaxOverageDays    ColumnID = "max_overage_days"
)

// Column is a selected column with its display header.
type Column struct {
	ID     ColumnID `json:"id"`
	Header string   `json:"header"`
}

var complianceColumns = []Column{
	{ColBlock, "Technology Block"},
	{ColRequestCount, "Requests"},
	{ColCompliancePct, "Compliance %"},
	{ColAvgElapsedDays, "Avg Days"},
	{ColMeetsBar, "Meets 80%"},
}

var nonComplianceColumns = []Column{
	{ColBlock, "Technology Block"},
	{ColNonCompliantCount, "Non-compliant"},
	{ColPctOfNonCompliant, "% of Non-compliant"},
	{ColAvgOverageDays, "Avg Overage"},
	{ColMaxOverageDays, "Max Overage"},
}

// ColumnSet is the set of columns the user selected.
type ColumnSet map[ColumnID]bool

// Columns builds a ColumnSet from raw identifiers. Unknown identifiers are dropped.
func Columns(ids ...string) ColumnSet {
	set := make(ColumnSet)
	for _, id := range ids {
		c := ColumnID(strings.ToLower(strings.TrimSpace(id)))
		if isKnown(c) {
			set[c] = true
		}
	}
	return set
}

// DefaultColumns selects every known column.
func DefaultColumns() ColumnSet {
	set := make(ColumnSet)
	for _, c := range complianceColumns {
		set[c.ID] = true
	}
	for _, c := range nonComplianceColumns {
		set[c.ID] = true
	}
	return set
}

// KnownColumns lists every column identifier in table order.
func KnownColumns() []ColumnID {
	var ids []ColumnID
	seen := make(map[ColumnID]bool)
	for _, c := range append(append([]Column{}, complianceColumns...), nonComplianceColumns...) {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func isKnown(id ColumnID) bool {
	for _, c := range KnownColumns() {
		if c == id {
			return true
		}
	}
	return false
}

// pick keeps the catalog order of columns and filters by selection.
// The block column is always kept so rows stay identifiable.
func (s ColumnSet) pick(catalog []Column) []Column {
	var out []Column
	for _, c := range catalog {
		if c.ID == ColBlock || s[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func (s ColumnSet) hasAny() bool {
	for id, ok := range s {
		if ok && isKnown(id) {
			return true
		}
	}
	return false
}
