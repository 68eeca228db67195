package stats

import (
	"maps"
	"slices"
)

// DefaultThresholdDays is used when no SLA configuration resolves for a track.
const DefaultThresholdDays = 30

// SLAConfig is one entry of the SLA configuration catalog.
type SLAConfig struct {
	Code          string `json:"code"`
	ThresholdDays int    `json:"threshold_days"`
	Description   string `json:"description"`
}

// Catalog maps SLA type codes to their configuration.
type Catalog map[string]SLAConfig

// Lookup finds a configuration by code. An exact key wins; otherwise the
// first key in sorted order that matches ignoring case is used.
func (c Catalog) Lookup(code string) (SLAConfig, bool) {
	if cfg, ok := c[code]; ok {
		return cfg, true
	}
	for _, k := range slices.Sorted(maps.Keys(c)) {
		if EqualFold(k, code) {
			return c[k], true
		}
	}
	return SLAConfig{}, false
}

// Threshold resolves the day limit for a track. Combined uses SLA1.
// A missing or non-positive entry falls back to DefaultThresholdDays.
func (c Catalog) Threshold(track Track) int {
	return c.ThresholdOr(track, DefaultThresholdDays)
}

// ThresholdOr is Threshold with a caller-chosen fallback.
func (c Catalog) ThresholdOr(track Track, fallback int) int {
	code := TrackSLA1.String()
	if track == TrackSLA2 {
		code = TrackSLA2.String()
	}
	if cfg, ok := c.Lookup(code); ok && cfg.ThresholdDays > 0 {
		return cfg.ThresholdDays
	}
	if fallback <= 0 {
		return DefaultThresholdDays
	}
	return fallback
}
