package report

import (
	"fmt"
	"strconv"
	"time"

	"sla-tracker/internal/stats"
)

// MaxTableRows caps the rows a paginated renderer receives per table.
const MaxTableRows = 15

// Header carries report metadata.
type Header struct {
	Name          string         `json:"name"`
	Track         string         `json:"track"`
	ThresholdDays int            `json:"threshold_days"`
	Start         string         `json:"start,omitempty"`
	End           string         `json:"end,omitempty"`
	Filters       []FilterSource `json:"filters"`
}

// FilterSource describes one applied filter dimension.
type FilterSource struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}

// Tile is a single headline KPI.
type Tile struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Good  *bool  `json:"good,omitempty"`
}

// Table is a renderer-agnostic grid of pre-formatted cells.
type Table struct {
	Title        string     `json:"title"`
	Columns      []Column   `json:"columns"`
	Rows         [][]string `json:"rows"`
	TotalRows    int        `json:"total_rows"`
	RenderedRows int        `json:"rendered_rows"`
}

// Truncated reports whether rows were dropped by the row cap.
func (t Table) Truncated() bool {
	return t.RenderedRows < t.TotalRows
}

// SeriesPoint is one labelled value for charting.
type SeriesPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Payload is everything a renderer needs to draw the report.
type Payload struct {
	Header           Header              `json:"header"`
	Tiles            []Tile              `json:"tiles"`
	Distribution     []stats.StatusCount `json:"status_distribution"`
	ComplianceSeries []SeriesPoint       `json:"compliance_series"`
	Compliance       Table               `json:"compliance_by_block"`
	NonCompliance    Table               `json:"non_compliance_by_block"`
}

// Assemble shapes a snapshot into a report payload. It performs no I/O and
// returns identical payloads for identical inputs. An empty or unknown column
// selection falls back to every column.
func Assemble(snap stats.Snapshot, c stats.Criteria, cols ColumnSet, name string) Payload {
	if !cols.hasAny() {
		cols = DefaultColumns()
	}

	return Payload{
		Header:           buildHeader(snap, c, name),
		Tiles:            buildTiles(snap),
		Distribution:     append([]stats.StatusCount{}, snap.StatusDistribution...),
		ComplianceSeries: buildComplianceSeries(snap),
		Compliance:       buildComplianceTable(snap, cols),
		NonCompliance:    buildNonComplianceTable(snap, cols),
	}
}

func buildComplianceSeries(snap stats.Snapshot) []SeriesPoint {
	series := []SeriesPoint{}
	for i, b := range snap.PerTechnologyBlock {
		if i >= MaxTableRows {
			break
		}
		series = append(series, SeriesPoint{Label: b.Block, Value: b.CompliancePct})
	}
	return series
}

func buildHeader(snap stats.Snapshot, c stats.Criteria, name string) Header {
	h := Header{
		Name:          stats.PreferLabel(name, "SLA Report"),
		Track:         snap.Track,
		ThresholdDays: snap.ThresholdDays,
		Filters: []FilterSource{
			{Dimension: string(stats.DimensionSLAType), Values: selectionValues(c.SLATypes)},
			{Dimension: string(stats.DimensionStatus), Values: selectionValues(c.Statuses)},
			{Dimension: string(stats.DimensionBlock), Values: selectionValues(c.Blocks)},
			{Dimension: string(stats.DimensionPriority), Values: selectionValues(c.Priorities)},
		},
	}
	if !c.Start.IsZero() {
		h.Start = c.Start.Format(time.DateOnly)
	}
	if !c.End.IsZero() {
		h.End = c.End.Format(time.DateOnly)
	}
	return h
}

func selectionValues(s stats.Selection) []string {
	if s.IsAll() {
		return []string{stats.All}
	}
	return append([]string{}, s...)
}

func buildTiles(snap stats.Snapshot) []Tile {
	meets := snap.ComplianceRatePct >= stats.ComplianceBarPct
	return []Tile{
		{Key: "total_requests", Label: "Total Requests", Value: snap.TotalRequests},
		{Key: "compliance_rate", Label: "Compliance Rate", Value: snap.ComplianceRatePct, Unit: "%", Good: &meets},
		{Key: "non_compliance_rate", Label: "Non-compliance Rate", Value: snap.NonComplianceRatePct, Unit: "%"},
		{Key: "average_elapsed", Label: "Average Elapsed", Value: snap.AverageElapsedDays, Unit: "days"},
		{Key: "resolved", Label: "Resolved", Value: snap.ResolvedCount},
		{Key: "pending", Label: "Pending", Value: snap.PendingCount},
		{Key: "escalated", Label: "Escalated", Value: snap.EscalatedCount},
		{Key: "at_risk", Label: "At Risk", Value: snap.AtRiskCount},
		{Key: "max_overage", Label: "Max Overage", Value: snap.NonCompliance.MaxOverageDays, Unit: "days"},
	}
}

func buildComplianceTable(snap stats.Snapshot, cols ColumnSet) Table {
	columns := cols.pick(complianceColumns)
	t := Table{
		Title:     "Compliance by Technology Block",
		Columns:   columns,
		Rows:      [][]string{},
		TotalRows: len(snap.PerTechnologyBlock),
	}
	for i, b := range snap.PerTechnologyBlock {
		if i >= MaxTableRows {
			break
		}
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, complianceCell(b, c.ID))
		}
		t.Rows = append(t.Rows, row)
	}
	t.RenderedRows = len(t.Rows)
	return t
}

func buildNonComplianceTable(snap stats.Snapshot, cols ColumnSet) Table {
	columns := cols.pick(nonComplianceColumns)
	t := Table{
		Title:     fmt.Sprintf("Non-compliance by Technology Block (threshold %d days)", snap.ThresholdDays),
		Columns:   columns,
		Rows:      [][]string{},
		TotalRows: len(snap.NonCompliance.PerBlock),
	}
	for i, b := range snap.NonCompliance.PerBlock {
		if i >= MaxTableRows {
			break
		}
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, overageCell(b, c.ID))
		}
		t.Rows = append(t.Rows, row)
	}
	t.RenderedRows = len(t.Rows)
	return t
}

func complianceCell(b stats.BlockCompliance, id ColumnID) string {
	switch id {
	case ColBlock:
		return b.Block
	case ColRequestCount:
		return strconv.Itoa(b.RequestCount)
	case ColCompliancePct:
		return strconv.Itoa(b.CompliancePct) + "%"
	case ColAvgElapsedDays:
		return strconv.Itoa(b.AvgElapsedDays)
	case ColMeetsBar:
		if b.MeetsBar {
			return "Yes"
		}
		return "No"
	}
	return ""
}

func overageCell(b stats.BlockOverage, id ColumnID) string {
	switch id {
	case ColBlock:
		return b.Block
	case ColNonCompliantCount:
		return strconv.Itoa(b.Count)
	case ColPctOfNonCompliant:
		return strconv.Itoa(b.PctOfNonCompliant) + "%"
	case ColAvgOverageDays:
		return strconv.Itoa(b.AvgOverageDays)
	case ColMaxOverageDays:
		return strconv.Itoa(b.MaxOverageDays)
	}
	return ""
}
