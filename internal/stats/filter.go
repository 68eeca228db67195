package stats

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// All is the selection label meaning "no restriction on this dimension".
const All = "All"

// ErrInvalidRange is returned when a date range starts after it ends.
var ErrInvalidRange = errors.New("start date is after end date")

// Selection is a multi-select set of labels for one filter dimension.
// It is kept sorted so equal sets compare equal element-wise.
type Selection []string

// SelectAll returns the unrestricted selection.
func SelectAll() Selection {
	return Selection{All}
}

// Select builds a selection from labels, applying the same "All" exclusivity
// as Toggle. Empty input yields {"All"}.
func Select(labels ...string) Selection {
	var out Selection
	for _, l := range labels {
		if l == All {
			return SelectAll()
		}
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return SelectAll()
	}
	slices.Sort(out)
	return out
}

// IsAll reports whether the selection places no restriction.
func (s Selection) IsAll() bool {
	return len(s) == 0 || slices.Contains(s, All)
}

// Contains reports whether label is selected, ignoring case.
func (s Selection) Contains(label string) bool {
	for _, v := range s {
		if EqualFold(v, label) {
			return true
		}
	}
	return false
}

// Matches reports whether a record value passes this dimension.
func (s Selection) Matches(labels ...string) bool {
	if s.IsAll() {
		return true
	}
	for _, l := range labels {
		if s.Contains(l) {
			return true
		}
	}
	return false
}

// Toggle returns the next selection after the user taps option.
// Toggling "All" always yields {"All"}; selecting a concrete label clears "All";
// deselecting the last concrete label collapses back to {"All"}.
func (s Selection) Toggle(option string) Selection {
	if option == All {
		return SelectAll()
	}

	next := make(Selection, 0, len(s)+1)
	removed := false
	for _, v := range s {
		if v == All {
			continue
		}
		if EqualFold(v, option) {
			removed = true
			continue
		}
		next = append(next, v)
	}
	if !removed {
		next = append(next, option)
	}
	if len(next) == 0 {
		return SelectAll()
	}
	slices.Sort(next)
	return next
}

// Equal compares two selections as sets.
func (s Selection) Equal(other Selection) bool {
	if s.IsAll() || other.IsAll() {
		return s.IsAll() == other.IsAll()
	}
	return slices.Equal(Select(s...), Select(other...))
}

// Dimension names a filterable attribute of a request.
type Dimension string

const (
	DimensionSLAType  Dimension = "sla_type"
	DimensionStatus   Dimension = "status"
	DimensionBlock    Dimension = "technology_block"
	DimensionPriority Dimension = "priority"
)

// ParseDimension resolves a dimension name, accepting a few aliases.
func ParseDimension(s string) (Dimension, error) {
	switch normalizeLabel(s) {
	case "sla_type", "sla", "slatype", "type":
		return DimensionSLAType, nil
	case "status":
		return DimensionStatus, nil
	case "technology_block", "block", "technologyblock", "tech":
		return DimensionBlock, nil
	case "priority":
		return DimensionPriority, nil
	}
	return "", fmt.Errorf("unknown filter dimension %q", s)
}

// Criteria is the compound predicate applied to the request set.
// A zero Start or End leaves that side of the date range open. Track decides
// how a record without a stored status is classified; zero means Combined.
type Criteria struct {
	Track      Track     `json:"-"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	SLATypes   Selection `json:"sla_types"`
	Statuses   Selection `json:"statuses"`
	Blocks     Selection `json:"technology_blocks"`
	Priorities Selection `json:"priorities"`
}

// NewCriteria returns criteria over [start, end] with every dimension unrestricted.
func NewCriteria(start, end time.Time) Criteria {
	return Criteria{
		Start:      start,
		End:        end,
		SLATypes:   SelectAll(),
		Statuses:   SelectAll(),
		Blocks:     SelectAll(),
		Priorities: SelectAll(),
	}
}

// Validate checks the date range.
func (c Criteria) Validate() error {
	if !c.Start.IsZero() && !c.End.IsZero() && dateOnly(c.Start).After(dateOnly(c.End)) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, c.Start.Format(time.DateOnly), c.End.Format(time.DateOnly))
	}
	return nil
}

// Selection returns the current selection for a dimension.
func (c Criteria) Selection(d Dimension) Selection {
	switch d {
	case DimensionSLAType:
		return c.SLATypes
	case DimensionStatus:
		return c.Statuses
	case DimensionBlock:
		return c.Blocks
	case DimensionPriority:
		return c.Priorities
	}
	return SelectAll()
}

// WithSelection returns a copy of the criteria with the dimension replaced.
func (c Criteria) WithSelection(d Dimension, s Selection) Criteria {
	switch d {
	case DimensionSLAType:
		c.SLATypes = s
	case DimensionStatus:
		c.Statuses = s
	case DimensionBlock:
		c.Blocks = s
	case DimensionPriority:
		c.Priorities = s
	}
	return c
}

// Clone returns a copy that shares no selection storage with c.
func (c Criteria) Clone() Criteria {
	c.SLATypes = slices.Clone(c.SLATypes)
	c.Statuses = slices.Clone(c.Statuses)
	c.Blocks = slices.Clone(c.Blocks)
	c.Priorities = slices.Clone(c.Priorities)
	return c
}

// ForTrack returns a copy that classifies statuses under track t.
func (c Criteria) ForTrack(t Track) Criteria {
	c.Track = t
	return c
}

func (c Criteria) statusTrack() Track {
	if c.Track == 0 {
		return TrackCombined
	}
	return c.Track
}

// Toggle returns a copy of the criteria with option toggled on dimension d.
func (c Criteria) Toggle(d Dimension, option string) Criteria {
	return c.WithSelection(d, c.Selection(d).Toggle(option))
}

// Matches evaluates the whole predicate for one record.
func (c Criteria) Matches(r Request) bool {
	day := dateOnly(r.RequestDate)
	if !c.Start.IsZero() && day.Before(dateOnly(c.Start)) {
		return false
	}
	if !c.End.IsZero() && day.After(dateOnly(c.End)) {
		return false
	}
	if !c.SLATypes.Matches(SLATypeLabels(r)...) {
		return false
	}
	if !c.Statuses.Matches(string(r.DeriveStatus(c.statusTrack()))) {
		return false
	}
	if !c.Blocks.Matches(r.Block()) {
		return false
	}
	return c.Priorities.Matches(r.Priority)
}

// Apply reduces records to those matching the criteria, preserving order.
// It never mutates its input.
func Apply(records []Request, c Criteria) []Request {
	out := make([]Request, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// SLATypeLabels returns the SLA-type labels a record answers to: the tracks it
// carries an evaluated flag for, or its request type when neither is evaluated.
func SLATypeLabels(r Request) []string {
	var labels []string
	if r.CompliesSLA1 != nil {
		labels = append(labels, TrackSLA1.String())
	}
	if r.CompliesSLA2 != nil {
		labels = append(labels, TrackSLA2.String())
	}
	if len(labels) == 0 && r.RequestType != "" {
		labels = append(labels, r.RequestType)
	}
	return labels
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
