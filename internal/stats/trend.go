package stats

import "time"

// TrendPoint is the compliance picture of the requests raised in one bucket.
type TrendPoint struct {
	Label             string    `json:"label"`
	Start             time.Time `json:"start"`
	Partial           bool      `json:"partial,omitempty"`
	Total             int       `json:"total"`
	Compliant         int       `json:"compliant"`
	NonCompliant      int       `json:"non_compliant"`
	ComplianceRatePct int       `json:"compliance_rate_pct"`
	MedianElapsedDays float64   `json:"median_elapsed_days"`
}

// Trend buckets filtered requests by request date from the earliest to the
// latest one. Empty buckets are kept so the series has no gaps. The bucket
// containing now is flagged partial.
func Trend(filtered []Request, track Track, bucket string, now time.Time) []TrendPoint {
	if len(filtered) == 0 {
		return []TrendPoint{}
	}

	first, last := filtered[0].RequestDate, filtered[0].RequestDate
	for _, r := range filtered[1:] {
		if r.RequestDate.Before(first) {
			first = r.RequestDate
		}
		if r.RequestDate.After(last) {
			last = r.RequestDate
		}
	}

	w := NewWindow(first, last, bucket)
	starts := w.Subdivide()
	points := make([]TrendPoint, len(starts))
	elapsed := make([][]int, len(starts))
	for i, s := range starts {
		points[i] = TrendPoint{Label: w.Label(s), Start: s, Partial: w.IsPartial(s, now)}
	}

	for _, r := range filtered {
		idx := w.FindBucketIndex(r.RequestDate)
		if idx < 0 || idx >= len(points) {
			continue
		}
		p := &points[idx]
		p.Total++
		if r.Complies(track) {
			p.Compliant++
		} else if r.Breaches(track) {
			p.NonCompliant++
		}
		elapsed[idx] = append(elapsed[idx], nonNegative(r.ElapsedDays))
	}

	for i := range points {
		points[i].ComplianceRatePct = percentOf(points[i].Compliant, points[i].Total)
		points[i].MedianElapsedDays = CalculateMedianDiscrete(elapsed[i])
	}
	return points
}
