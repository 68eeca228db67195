package visuals

import (
	"fmt"
	"strings"

	"sla-tracker/internal/report"
)

// RenderMarkdown draws a report payload as Markdown. Charts are appended only
// when withCharts is set.
func RenderMarkdown(p report.Payload, withCharts bool) string {
	var sb strings.Builder

	h := p.Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", h.Name))
	period := "all dates"
	if h.Start != "" || h.End != "" {
		period = fmt.Sprintf("%s to %s", orDash(h.Start), orDash(h.End))
	}
	sb.WriteString(fmt.Sprintf("Period: %s  \nSLA track: %s (threshold %d days)\n\n", period, h.Track, h.ThresholdDays))
	for _, f := range h.Filters {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Dimension, strings.Join(f.Values, ", ")))
	}
	sb.WriteString("\n## Key Figures\n\n")
	sb.WriteString("| KPI | Value |\n|---|---|\n")
	for _, t := range p.Tiles {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", t.Label, formatTile(t)))
	}

	writeTable(&sb, p.Compliance)
	writeTable(&sb, p.NonCompliance)

	if withCharts {
		if pie := GenerateStatusPie(p.Distribution); pie != "" {
			sb.WriteString("\n" + pie + "\n")
		}
		if chart := GenerateComplianceChart(p.ComplianceSeries); chart != "" {
			sb.WriteString("\n" + chart + "\n")
		}
	}

	return sb.String()
}

func writeTable(sb *strings.Builder, t report.Table) {
	sb.WriteString(fmt.Sprintf("\n## %s\n\n", t.Title))
	if t.TotalRows == 0 {
		sb.WriteString("_No data._\n")
		return
	}

	headers := make([]string, len(t.Columns))
	seps := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
		seps[i] = "---"
	}
	sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sb.WriteString("|" + strings.Join(seps, "|") + "|\n")
	for _, row := range t.Rows {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	if t.Truncated() {
		sb.WriteString(fmt.Sprintf("\n_Showing %d of %d rows._\n", t.RenderedRows, t.TotalRows))
	}
}

func formatTile(t report.Tile) string {
	switch t.Unit {
	case "":
		return fmt.Sprintf("%d", t.Value)
	case "%":
		return fmt.Sprintf("%d%%", t.Value)
	}
	return fmt.Sprintf("%d %s", t.Value, t.Unit)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
