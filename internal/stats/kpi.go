package stats

import (
	"slices"
)

const (
	// AtRiskLowerPct and AtRiskUpperPct bound the amber band (inclusive) of
	// SLA budget consumed before a request breaches.
	AtRiskLowerPct = 70.0
	AtRiskUpperPct = 79.9

	// ComplianceBarPct is the per-block compliance rate a block must reach.
	ComplianceBarPct = 80
)

// BlockCompliance is the per-technology-block compliance row.
type BlockCompliance struct {
	Block          string `json:"block"`
	RequestCount   int    `json:"request_count"`
	CompliancePct  int    `json:"compliance_pct"`
	AvgElapsedDays int    `json:"avg_elapsed_days"`
	MeetsBar       bool   `json:"meets_bar"`
}

// BlockOverage is the per-block row of the non-compliance breakdown.
type BlockOverage struct {
	Block             string `json:"block"`
	Count             int    `json:"count"`
	PctOfNonCompliant int    `json:"pct_of_non_compliant"`
	AvgOverageDays    int    `json:"avg_overage_days"`
	MaxOverageDays    int    `json:"max_overage_days"`
}

// NonComplianceBreakdown summarises how far breached requests overshot.
type NonComplianceBreakdown struct {
	TotalNonCompliant int            `json:"total_non_compliant"`
	AvgOverageDays    int            `json:"avg_overage_days"`
	MaxOverageDays    int            `json:"max_overage_days"`
	PerBlock          []BlockOverage `json:"per_block"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// Snapshot is the derived KPI read model. It is rebuilt from scratch on every
// recomputation and never patched in place. Track and ThresholdDays echo the
// evaluation inputs; every other field is derived.
type Snapshot struct {
	Track                string                 `json:"track"`
	ThresholdDays        int                    `json:"threshold_days"`
	TotalRequests        int                    `json:"total_requests"`
	CompliantCount       int                    `json:"compliant_count"`
	NonCompliantCount    int                    `json:"non_compliant_count"`
	UndeterminedCount    int                    `json:"undetermined_count"`
	ComplianceRatePct    int                    `json:"compliance_rate_pct"`
	NonComplianceRatePct int                    `json:"non_compliance_rate_pct"`
	AverageElapsedDays   int                    `json:"average_elapsed_days"`
	MedianElapsedDays    float64                `json:"median_elapsed_days"`
	ResolvedCount        int                    `json:"resolved_count"`
	PendingCount         int                    `json:"pending_count"`
	EscalatedCount       int                    `json:"escalated_count"`
	AtRiskCount          int                    `json:"at_risk_count"`
	StatusDistribution   []StatusCount          `json:"status_distribution"`
	PerTechnologyBlock   []BlockCompliance      `json:"per_technology_block"`
	NonCompliance        NonComplianceBreakdown `json:"non_compliance"`
}

// Clone returns a deep copy so callers can hold a snapshot across recomputations.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.StatusDistribution = slices.Clone(s.StatusDistribution)
	out.PerTechnologyBlock = slices.Clone(s.PerTechnologyBlock)
	out.NonCompliance.PerBlock = slices.Clone(s.NonCompliance.PerBlock)
	return out
}

// Overage returns the days a request ran past the threshold, never negative.
func Overage(r Request, thresholdDays int) int {
	return max(0, nonNegative(r.ElapsedDays)-thresholdDays)
}

// Compute derives a Snapshot from an already filtered request set.
//
// Percentages and averages use truncating integer division. A thresholdDays of
// zero or less falls back to DefaultThresholdDays. Negative elapsed days are
// treated as zero.
func Compute(filtered []Request, track Track, thresholdDays int) Snapshot {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}

	snap := Snapshot{
		Track:              track.String(),
		ThresholdDays:      thresholdDays,
		TotalRequests:      len(filtered),
		StatusDistribution: []StatusCount{},
		PerTechnologyBlock: []BlockCompliance{},
		NonCompliance:      NonComplianceBreakdown{PerBlock: []BlockOverage{}},
	}
	if snap.TotalRequests == 0 {
		return snap
	}
	snap.StatusDistribution = emptyDistribution()

	type blockAcc struct {
		count, compliant, elapsed int
	}
	blocks := make(map[string]*blockAcc)
	var blockOrder []string

	statusCounts := make(map[Status]int)
	elapsedValues := make([]int, 0, len(filtered))
	var breached []Request
	sumElapsed := 0

	for _, r := range filtered {
		elapsed := nonNegative(r.ElapsedDays)
		sumElapsed += elapsed
		elapsedValues = append(elapsedValues, elapsed)

		if r.IsResolved() {
			snap.ResolvedCount++
		}

		complies := r.Complies(track)
		if complies {
			snap.CompliantCount++
		}
		if r.Breaches(track) {
			snap.NonCompliantCount++
			breached = append(breached, r)
		}
		if r.IsAtRisk(track) {
			snap.AtRiskCount++
		}

		status := r.DeriveStatus(track)
		statusCounts[status]++
		switch status {
		case StatusPending:
			snap.PendingCount++
		case StatusEscalated:
			snap.EscalatedCount++
		}

		name := r.Block()
		acc, ok := blocks[name]
		if !ok {
			acc = &blockAcc{}
			blocks[name] = acc
			blockOrder = append(blockOrder, name)
		}
		acc.count++
		acc.elapsed += elapsed
		if complies {
			acc.compliant++
		}
	}

	snap.UndeterminedCount = snap.TotalRequests - snap.CompliantCount - snap.NonCompliantCount
	snap.ComplianceRatePct = percentOf(snap.CompliantCount, snap.TotalRequests)
	snap.NonComplianceRatePct = percentOf(snap.NonCompliantCount, snap.TotalRequests)
	snap.AverageElapsedDays = meanOf(sumElapsed, snap.TotalRequests)
	snap.MedianElapsedDays = CalculateMedianDiscrete(elapsedValues)

	for i := range snap.StatusDistribution {
		snap.StatusDistribution[i].Count = statusCounts[snap.StatusDistribution[i].Status]
	}

	for _, name := range blockOrder {
		acc := blocks[name]
		pct := percentOf(acc.compliant, acc.count)
		snap.PerTechnologyBlock = append(snap.PerTechnologyBlock, BlockCompliance{
			Block:          name,
			RequestCount:   acc.count,
			CompliancePct:  pct,
			AvgElapsedDays: meanOf(acc.elapsed, acc.count),
			MeetsBar:       pct >= ComplianceBarPct,
		})
	}
	slices.SortStableFunc(snap.PerTechnologyBlock, func(a, b BlockCompliance) int {
		return b.RequestCount - a.RequestCount
	})

	snap.NonCompliance = breakdownOverage(breached, thresholdDays)
	return snap
}

// breakdownOverage builds the non-compliance section from breached requests only.
func breakdownOverage(breached []Request, thresholdDays int) NonComplianceBreakdown {
	out := NonComplianceBreakdown{
		TotalNonCompliant: len(breached),
		PerBlock:          []BlockOverage{},
	}
	if len(breached) == 0 {
		return out
	}

	type blockAcc struct {
		count, sum, max int
	}
	blocks := make(map[string]*blockAcc)
	var order []string
	sum := 0

	for _, r := range breached {
		over := Overage(r, thresholdDays)
		sum += over
		out.MaxOverageDays = max(out.MaxOverageDays, over)

		name := r.Block()
		acc, ok := blocks[name]
		if !ok {
			acc = &blockAcc{}
			blocks[name] = acc
			order = append(order, name)
		}
		acc.count++
		acc.sum += over
		acc.max = max(acc.max, over)
	}
	out.AvgOverageDays = meanOf(sum, len(breached))

	for _, name := range order {
		acc := blocks[name]
		out.PerBlock = append(out.PerBlock, BlockOverage{
			Block:             name,
			Count:             acc.count,
			PctOfNonCompliant: percentOf(acc.count, out.TotalNonCompliant),
			AvgOverageDays:    meanOf(acc.sum, acc.count),
			MaxOverageDays:    acc.max,
		})
	}
	slices.SortStableFunc(out.PerBlock, func(a, b BlockOverage) int {
		return b.Count - a.Count
	})
	return out
}

func emptyDistribution() []StatusCount {
	dist := make([]StatusCount, len(Statuses))
	for i, s := range Statuses {
		dist[i] = StatusCount{Status: s}
	}
	return dist
}
