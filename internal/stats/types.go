package stats

import (
	"time"
)

// Unassigned is the bucket for requests that carry no technology block.
const Unassigned = "Unassigned"

// Status is the canonical classification of a request.
type Status string

const (
	StatusComplies      Status = "Complies"
	StatusDoesNotComply Status = "DoesNotComply"
	StatusPending       Status = "Pending"
	StatusEscalated     Status = "Escalated"
	StatusAtRisk        Status = "AtRisk"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusComplies, StatusDoesNotComply, StatusPending, StatusEscalated, StatusAtRisk}

// Track selects which SLA governs compliance evaluation.
type Track int

const (
	TrackSLA1 Track = iota + 1
	TrackSLA2
	TrackCombined
)

func (t Track) String() string {
	switch t {
	case TrackSLA1:
		return "SLA1"
	case TrackSLA2:
		return "SLA2"
	case TrackCombined:
		return "Combined"
	}
	return "Unknown"
}

// ParseTrack maps a label ("SLA1", "sla2", "combined", "1", "2") to a Track.
// Anything unrecognised resolves to TrackCombined.
func ParseTrack(s string) Track {
	switch normalizeLabel(s) {
	case "sla1", "1":
		return TrackSLA1
	case "sla2", "2":
		return TrackSLA2
	}
	return TrackCombined
}

// Request is one row of SLA tracking data.
type Request struct {
	ID               string     `json:"id"`
	TechnologyBlock  *string    `json:"technology_block,omitempty"`
	RequestType      string     `json:"request_type"`
	Priority         string     `json:"priority"`
	RequestDate      time.Time  `json:"request_date"`
	EntryDate        *time.Time `json:"entry_date,omitempty"`
	ElapsedDays      int        `json:"elapsed_days"`
	CompliesSLA1     *bool      `json:"complies_sla1,omitempty"`
	CompliesSLA2     *bool      `json:"complies_sla2,omitempty"`
	PctCompletedSLA1 *float64   `json:"pct_completed_sla1,omitempty"`
	PctCompletedSLA2 *float64   `json:"pct_completed_sla2,omitempty"`
	Status           Status     `json:"status,omitempty"`
	ThresholdDays    int        `json:"threshold_days,omitempty"`
}

// Block returns the technology block, normalised to Unassigned when missing.
func (r Request) Block() string {
	if r.TechnologyBlock == nil || *r.TechnologyBlock == "" {
		return Unassigned
	}
	return *r.TechnologyBlock
}

// IsResolved reports whether the request has an entry date.
func (r Request) IsResolved() bool {
	return r.EntryDate != nil
}

// Complies evaluates the compliance predicate under the given track.
func (r Request) Complies(track Track) bool {
	switch track {
	case TrackSLA1:
		return isTrue(r.CompliesSLA1)
	case TrackSLA2:
		return isTrue(r.CompliesSLA2)
	default:
		return isTrue(r.CompliesSLA1) || isTrue(r.CompliesSLA2)
	}
}

// Breaches evaluates the non-compliance predicate. A nil flag is undetermined,
// so it is neither compliant nor a breach. Combined requires both tracks false.
func (r Request) Breaches(track Track) bool {
	switch track {
	case TrackSLA1:
		return isFalse(r.CompliesSLA1)
	case TrackSLA2:
		return isFalse(r.CompliesSLA2)
	default:
		return isFalse(r.CompliesSLA1) && isFalse(r.CompliesSLA2)
	}
}

// PctCompleted returns the consumed share of the SLA budget for the track.
// Combined reads SLA1.
func (r Request) PctCompleted(track Track) *float64 {
	if track == TrackSLA2 {
		return r.PctCompletedSLA2
	}
	return r.PctCompletedSLA1
}

// IsAtRisk reports whether the consumed share falls in the amber band.
func (r Request) IsAtRisk(track Track) bool {
	pct := r.PctCompleted(track)
	if pct == nil {
		return false
	}
	return *pct >= AtRiskLowerPct && *pct <= AtRiskUpperPct
}

// DeriveStatus classifies the request from its flags when no status was stored.
// A stored status always wins.
func (r Request) DeriveStatus(track Track) Status {
	if r.Status != "" {
		return r.Status
	}
	switch {
	case r.Breaches(track):
		return StatusDoesNotComply
	case r.Complies(track):
		return StatusComplies
	case r.IsAtRisk(track):
		return StatusAtRisk
	}
	return StatusPending
}

func isTrue(b *bool) bool  { return b != nil && *b }
func isFalse(b *bool) bool { return b != nil && !*b }
