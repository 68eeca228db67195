package stats

import (
	"fmt"
	"strings"
	"time"
)

// Bucket sizes accepted by Window.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// Window is a calendar range cut into equal day, week or month buckets.
type Window struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket string    `json:"bucket"`
}

// ParseBucket normalises a bucket name. Empty defaults to month.
func ParseBucket(s string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(s)); b {
	case "":
		return BucketMonth, nil
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	}
	return "", fmt.Errorf("unknown bucket %q: use day, week or month", s)
}

// NewWindow creates a window with boundaries snapped to whole buckets.
func NewWindow(start, end time.Time, bucket string) Window {
	if bucket == "" {
		bucket = BucketDay
	}
	return Window{
		Start:  SnapToStart(start, bucket),
		End:    SnapToEnd(end, bucket),
		Bucket: bucket,
	}
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case BucketWeek:
		// Snap to Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the very end of its bucket (23:59:59.999...).
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case BucketMonth:
		nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return nextMonth.Add(-time.Nanosecond)
	case BucketWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()+(7-weekday), 23, 59, 59, 999999999, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

// IsPartial reports whether the bucket starting at bucketStart contains now,
// so its figures are still moving.
func (w Window) IsPartial(bucketStart, now time.Time) bool {
	bucketEnd := SnapToEnd(bucketStart, w.Bucket)
	return !now.Before(bucketStart) && !now.After(bucketEnd)
}

// Subdivide returns the bucket start times within the window.
func (w Window) Subdivide() []time.Time {
	var buckets []time.Time
	current := w.Start

	for current.Before(w.End) {
		buckets = append(buckets, current)
		switch w.Bucket {
		case BucketMonth:
			current = current.AddDate(0, 1, 0)
		case BucketWeek:
			current = current.AddDate(0, 0, 7)
		default:
			current = current.AddDate(0, 0, 1)
		}
	}
	return buckets
}

// FindBucketIndex returns the index of the bucket containing t. Returns -1 if out of bounds.
func (w Window) FindBucketIndex(t time.Time) int {
	tNorm := SnapToStart(t, w.Bucket)
	if tNorm.Before(w.Start) || tNorm.After(w.End) {
		return -1
	}

	switch w.Bucket {
	case BucketMonth:
		return (tNorm.Year()-w.Start.Year())*12 + int(tNorm.Month()-w.Start.Month())
	case BucketWeek:
		return int(tNorm.Sub(w.Start).Hours() / (24 * 7))
	default:
		return int(tNorm.Sub(w.Start).Hours() / 24)
	}
}

// Label returns a human-readable label for a bucket (e.g., "Jan 2024" or "2024-W01").
func (w Window) Label(t time.Time) string {
	switch w.Bucket {
	case BucketMonth:
		return t.Format("Jan 2006")
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format(time.DateOnly)
	}
}
