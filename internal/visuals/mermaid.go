package visuals

import (
	"fmt"
	"strings"

	"sla-tracker/internal/report"
	"sla-tracker/internal/stats"
)

// GenerateStatusPie creates a Mermaid pie chart of the status distribution.
func GenerateStatusPie(dist []stats.StatusCount) string {
	total := 0
	for _, d := range dist {
		total += d.Count
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie showData\n")
	sb.WriteString("    title \"Requests by Status\"\n")
	for _, d := range dist {
		if d.Count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", d.Status, d.Count))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateComplianceChart creates a Mermaid bar chart of compliance per block,
// with the 80% bar drawn as a line.
func GenerateComplianceChart(series []report.SeriesPoint) string {
	if len(series) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var bar []string
	for _, p := range series {
		labels = append(labels, fmt.Sprintf("\"%s\"", escapeLabel(p.Label)))
		values = append(values, fmt.Sprintf("%d", p.Value))
		bar = append(bar, fmt.Sprintf("%d", stats.ComplianceBarPct))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Compliance by Technology Block\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Compliance %\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(bar, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateTrendChart creates a Mermaid line chart of compliance per bucket,
// with the 80% bar drawn as a second line.
func GenerateTrendChart(points []stats.TrendPoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels, values, bar []string
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("\"%s\"", escapeLabel(p.Label)))
		values = append(values, fmt.Sprintf("%d", p.ComplianceRatePct))
		bar = append(bar, fmt.Sprintf("%d", stats.ComplianceBarPct))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Compliance Trend\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Compliance %\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(bar, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
