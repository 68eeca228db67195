package mcp

import (
	"fmt"
	"strings"
	"time"

	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
)

// parseDateArg parses an optional YYYY-MM-DD argument. Empty yields the zero time.
func parseDateArg(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := tracker.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

// updateDateArg keeps current for an empty value and clears it for "open".
func updateDateArg(name, value string, current time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return current, nil
	case "open", "none":
		return time.Time{}, nil
	}
	return parseDateArg(name, value)
}

func parseTrackArg(value string) (stats.Track, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sla1", "1":
		return stats.TrackSLA1, nil
	case "sla2", "2":
		return stats.TrackSLA2, nil
	case "combined", "both", "":
		return stats.TrackCombined, nil
	}
	return 0, fmt.Errorf("unknown track %q: use SLA1, SLA2 or Combined", value)
}
