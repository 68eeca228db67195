package dashboard

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"sla-tracker/internal/metrics"
	"sla-tracker/internal/report"
	"sla-tracker/internal/stats"
)

// Session is the caller-owned dashboard state. Every mutation runs one
// synchronous Filter then KPI pass that replaces the snapshot wholesale.
// Passes are serialised, so the last write wins.
type Session struct {
	mu sync.Mutex

	records          []stats.Request
	catalog          stats.Catalog
	track            stats.Track
	criteria         stats.Criteria
	defaultThreshold int

	filteredCount int
	snapshot      stats.Snapshot
	computedAt    time.Time
}

// Report is an assembled payload stamped with an identity.
type Report struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Payload     report.Payload `json:"payload"`
}

// State is a read-only view of the session.
type State struct {
	Track         string         `json:"track"`
	Criteria      stats.Criteria `json:"criteria"`
	RecordCount   int            `json:"record_count"`
	FilteredCount int            `json:"filtered_count"`
	ComputedAt    time.Time      `json:"computed_at"`
	Snapshot      stats.Snapshot `json:"snapshot"`
}

// NewSession creates an empty session on the Combined track with unrestricted
// criteria. defaultThreshold applies when the catalog has no entry for a track.
func NewSession(defaultThreshold int) *Session {
	s := &Session{
		track:            stats.TrackCombined,
		criteria:         stats.NewCriteria(time.Time{}, time.Time{}),
		defaultThreshold: defaultThreshold,
	}
	s.recompute()
	return s
}

// SetRecords replaces the record set and catalog.
func (s *Session) SetRecords(records []stats.Request, catalog stats.Catalog) stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = slices.Clone(records)
	s.catalog = catalog
	s.recompute()
	return s.snapshot.Clone()
}

// SetCriteria replaces the whole criteria. Invalid criteria leave the session untouched.
func (s *Session) SetCriteria(c stats.Criteria) (stats.Snapshot, error) {
	if err := c.Validate(); err != nil {
		return stats.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.criteria = c.ForTrack(0)
	s.recompute()
	return s.snapshot.Clone(), nil
}

// Toggle flips one option of one dimension.
func (s *Session) Toggle(d stats.Dimension, option string) stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.criteria = s.criteria.Toggle(d, option)
	s.recompute()
	return s.snapshot.Clone()
}

// SetTrack switches the SLA track evaluated by the aggregator.
func (s *Session) SetTrack(t stats.Track) stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.track = t
	s.recompute()
	return s.snapshot.Clone()
}

// Snapshot returns a copy of the latest snapshot.
func (s *Session) Snapshot() stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Criteria returns the active criteria.
func (s *Session) Criteria() stats.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria.Clone()
}

// Track returns the active SLA track.
func (s *Session) Track() stats.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// State returns a copy of the full session view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Track:         s.track.String(),
		Criteria:      s.criteria.Clone(),
		RecordCount:   len(s.records),
		FilteredCount: s.filteredCount,
		ComputedAt:    s.computedAt,
		Snapshot:      s.snapshot.Clone(),
	}
}

// Options lists the filter chips for the loaded records.
func (s *Session) Options() stats.FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.Options(s.records)
}

// Trend buckets the filtered records by request date under the active track.
func (s *Session) Trend(bucket string) ([]stats.TrendPoint, error) {
	b, err := stats.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	track := s.track
	filtered := stats.Apply(s.records, s.criteria.ForTrack(track))
	s.mu.Unlock()

	return stats.Trend(filtered, track, b, time.Now().UTC()), nil
}

// Report assembles the current snapshot into a payload.
func (s *Session) Report(cols report.ColumnSet, name string) Report {
	s.mu.Lock()
	snap := s.snapshot.Clone()
	criteria := s.criteria.Clone()
	s.mu.Unlock()

	return Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Payload:     report.Assemble(snap, criteria, cols, name),
	}
}

// recompute must be called with mu held.
func (s *Session) recompute() {
	threshold := s.catalog.ThresholdOr(s.track, s.defaultThreshold)
	filtered := stats.Apply(s.records, s.criteria.ForTrack(s.track))

	s.filteredCount = len(filtered)
	s.snapshot = stats.Compute(filtered, s.track, threshold)
	s.computedAt = time.Now().UTC()
	metrics.ObserveSnapshot(s.snapshot)
}
