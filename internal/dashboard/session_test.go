package dashboard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-tracker/internal/report"
	"sla-tracker/internal/stats"
)

func boolPtr(b bool) *bool        { return &b }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func day(d int) time.Time         { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func fixture() []stats.Request {
	return []stats.Request{
		{ID: "1", TechnologyBlock: strPtr("DevOps"), Priority: "High", RequestDate: day(1), ElapsedDays: 10, CompliesSLA1: boolPtr(true)},
		{ID: "2", TechnologyBlock: strPtr("DevOps"), Priority: "Low", RequestDate: day(2), ElapsedDays: 40, CompliesSLA1: boolPtr(false)},
		{ID: "3", TechnologyBlock: strPtr("Data"), Priority: "High", RequestDate: day(3), ElapsedDays: 25, CompliesSLA1: boolPtr(false), CompliesSLA2: boolPtr(false)},
		{ID: "4", Priority: "Low", RequestDate: day(4), ElapsedDays: 5, PctCompletedSLA1: floatPtr(75)},
	}
}

func TestSession_InitialSnapshotIsEmpty(t *testing.T) {
	s := NewSession(0)
	snap := s.Snapshot()
	assert.Zero(t, snap.TotalRequests)
	assert.Equal(t, "Combined", snap.Track)
	assert.Equal(t, stats.DefaultThresholdDays, snap.ThresholdDays)
	assert.True(t, s.Criteria().Blocks.IsAll())
}

func TestSession_SetRecordsRecomputes(t *testing.T) {
	s := NewSession(30)
	s.SetTrack(stats.TrackSLA1)
	snap := s.SetRecords(fixture(), stats.Catalog{"SLA1": {Code: "SLA1", ThresholdDays: 20}})

	assert.Equal(t, 4, snap.TotalRequests)
	assert.Equal(t, 20, snap.ThresholdDays)
	assert.Equal(t, 2, snap.NonCompliantCount)
	assert.Equal(t, 50, snap.NonComplianceRatePct)
	assert.Equal(t, 1, snap.AtRiskCount)

	state := s.State()
	assert.Equal(t, 4, state.RecordCount)
	assert.Equal(t, 4, state.FilteredCount)
	assert.False(t, state.ComputedAt.IsZero())
}

func TestSession_ToggleNarrowsAndRestores(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	snap := s.Toggle(stats.DimensionBlock, "DevOps")
	assert.Equal(t, 2, snap.TotalRequests)

	snap = s.Toggle(stats.DimensionBlock, "DevOps")
	assert.Equal(t, 4, snap.TotalRequests, "deselecting the last block restores All")
	assert.True(t, s.Criteria().Blocks.IsAll())

	snap = s.Toggle(stats.DimensionBlock, stats.Unassigned)
	assert.Equal(t, 1, snap.TotalRequests)
}

func TestSession_SetCriteriaRejectsInvalidRange(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)
	before := s.State()

	_, err := s.SetCriteria(stats.NewCriteria(day(10), day(1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrInvalidRange)

	after := s.State()
	assert.Equal(t, before.Criteria, after.Criteria)
	assert.Equal(t, before.Snapshot, after.Snapshot)
}

func TestSession_SetCriteriaDateRange(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	snap, err := s.SetCriteria(stats.NewCriteria(day(2), day(3)))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalRequests)
}

func TestSession_ReadModelsAreCopies(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	snap := s.Snapshot()
	require.NotEmpty(t, snap.PerTechnologyBlock)
	snap.PerTechnologyBlock[0].Block = "mutated"
	assert.NotEqual(t, "mutated", s.Snapshot().PerTechnologyBlock[0].Block)

	c := s.Criteria()
	c.Blocks[0] = "mutated"
	assert.True(t, s.Criteria().Blocks.IsAll())
}

func TestSession_Report(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	a := s.Report(report.Columns("compliance_pct"), "March")
	b := s.Report(report.Columns("compliance_pct"), "March")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Payload, b.Payload, "payload is deterministic for identical state")
	assert.Equal(t, "March", a.Payload.Header.Name)
}

func TestSession_TrendFollowsFilter(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)
	s.SetTrack(stats.TrackSLA1)
	s.Toggle(stats.DimensionPriority, "High")

	points, err := s.Trend("week")
	require.NoError(t, err)
	total := 0
	for _, p := range points {
		total += p.Total
	}
	assert.Equal(t, 2, total)

	_, err = s.Trend("fortnight")
	assert.Error(t, err)
}

func TestSession_Options(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	opts := s.Options()
	assert.Equal(t, []string{stats.All, "Data", "DevOps", stats.Unassigned}, opts.Blocks)
	assert.Equal(t, []string{stats.All, "High", "Low"}, opts.Priorities)
}

func TestSession_ConcurrentMutations(t *testing.T) {
	s := NewSession(30)
	s.SetRecords(fixture(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Toggle(stats.DimensionPriority, "High")
			} else {
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	// An even number of toggles returns to the unrestricted selection.
	assert.Equal(t, 4, s.Snapshot().TotalRequests)
}
