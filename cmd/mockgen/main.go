package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sla-tracker/cmd/mockgen/engine"
)

func main() {
	var (
		cfg      engine.GeneratorConfig
		outDir   string
		sourceID string
	)

	cmd := &cobra.Command{
		Use:   "mockgen",
		Short: "Generate a synthetic SLA request snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Now = time.Now()
			fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, outDir)

			records, catalog := engine.Generate(cfg)
			path, err := engine.Save(outDir, sourceID, records, catalog)
			if err != nil {
				return fmt.Errorf("failed to save mock data: %w", err)
			}

			fmt.Printf("Done. Load it with: sla-tracker kpis --snapshot %s\n", path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Scenario, "scenario", "mild", "Scenario to generate: mild, chaos, drift")
	f.StringVar(&cfg.Distribution, "distribution", "uniform", "Distribution to use: uniform, weibull")
	f.IntVar(&cfg.Count, "count", 200, "Number of requests to generate")
	f.IntVar(&cfg.ThresholdDays, "threshold", 30, "SLA1 threshold in days; SLA2 is twice as long")
	f.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	f.StringVar(&outDir, "out", "./.cache", "Output directory for mock files")
	f.StringVar(&sourceID, "source-id", "MOCK_REQUESTS", "Snapshot file name without extension")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
