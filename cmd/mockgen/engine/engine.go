package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"sla-tracker/internal/requestlog"
	"sla-tracker/internal/stats"
)

type GeneratorConfig struct {
	Scenario      string // "mild", "chaos" or "drift"
	Distribution  string // "uniform" or "weibull"
	Count         int
	ThresholdDays int
	Now           time.Time
	Seed          int64
}

var (
	blocks       = []string{"DevOps", "Data", "Security", "Frontend", "Backend", "QA"}
	priorities   = []string{"Critical", "High", "Medium", "Low"}
	requestTypes = []string{"New Hire", "Replacement", "Contractor", "Internal Move"}
)

// Generate builds a synthetic request set with one request arriving per day,
// the last one on cfg.Now, plus the catalog the compliance flags were judged by.
func Generate(cfg GeneratorConfig) ([]stats.Request, stats.Catalog) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.ThresholdDays <= 0 {
		cfg.ThresholdDays = stats.DefaultThresholdDays
	}
	now := cfg.Now.UTC().Truncate(24 * time.Hour)
	rng := rand.New(rand.NewSource(cfg.Seed))

	sla1 := cfg.ThresholdDays
	sla2 := 2 * cfg.ThresholdDays
	catalog := stats.Catalog{
		"SLA1": {Code: "SLA1", ThresholdDays: sla1, Description: "Time to first candidate"},
		"SLA2": {Code: "SLA2", ThresholdDays: sla2, Description: "Time to onboarding"},
	}

	records := make([]stats.Request, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		arrival := now.AddDate(0, 0, i-cfg.Count+1)
		duration := sampleDuration(rng, cfg, i, float64(cfg.ThresholdDays))
		age := int(now.Sub(arrival).Hours() / 24)

		r := stats.Request{
			ID:          fmt.Sprintf("REQ-%04d", i+1),
			RequestType: requestTypes[rng.Intn(len(requestTypes))],
			Priority:    priorities[rng.Intn(len(priorities))],
			RequestDate: arrival,
		}
		// A small share of requests never get a block assigned.
		if rng.Float64() >= 0.05 {
			block := blocks[rng.Intn(len(blocks))]
			r.TechnologyBlock = &block
		}

		if duration <= age {
			entry := arrival.AddDate(0, 0, duration)
			r.EntryDate = &entry
			r.ElapsedDays = duration
			r.CompliesSLA1 = boolPtr(duration <= sla1)
			r.CompliesSLA2 = boolPtr(duration <= sla2)
		} else {
			r.ElapsedDays = age
			if age > sla1 {
				r.CompliesSLA1 = boolPtr(false)
			}
			if age > sla2 {
				r.CompliesSLA2 = boolPtr(false)
			}
			if float64(age) > 1.5*float64(sla1) {
				r.Status = stats.StatusEscalated
			}
		}
		r.PctCompletedSLA1 = pct(r.ElapsedDays, sla1)
		r.PctCompletedSLA2 = pct(r.ElapsedDays, sla2)

		records = append(records, r)
	}

	return records, catalog
}

// sampleDuration draws the resolution time in whole days. Mild centres well
// inside the threshold, chaos adds a heavy tail and drift degrades over time.
func sampleDuration(rng *rand.Rand, cfg GeneratorConfig, i int, threshold float64) int {
	k, lambda := 2.5, 0.7*threshold
	switch cfg.Scenario {
	case "chaos":
		k = 0.8
		if cfg.Distribution == "weibull" {
			lambda = 0.9 * threshold
		}
	case "drift":
		ratio := float64(i) / float64(cfg.Count)
		k = 2.5 - (1.7 * ratio)
		lambda = (0.7 + 0.6*ratio) * threshold
	}

	var d float64
	if cfg.Distribution == "weibull" {
		d = weibullSample(rng, k, lambda)
	} else {
		d = 0.4*threshold + rng.Float64()*0.5*threshold
		if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
			d += threshold * (0.5 + rng.Float64())
		}
		if cfg.Scenario == "drift" && i > cfg.Count/2 {
			d *= 2.0
		}
	}
	return int(math.Round(d))
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

func pct(elapsed, threshold int) *float64 {
	v := math.Round(float64(elapsed)/float64(threshold)*1000) / 10
	return &v
}

func boolPtr(b bool) *bool { return &b }

// Save writes the snapshot and its catalog under outDir and returns the snapshot path.
func Save(outDir, sourceID string, records []stats.Request, catalog stats.Catalog) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, sourceID+".jsonl")
	if err := requestlog.WriteSnapshot(path, records); err != nil {
		return "", err
	}
	if err := requestlog.WriteCatalog(requestlog.CatalogPath(path), catalog); err != nil {
		return "", err
	}
	return path, nil
}
