package requestlog

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"sla-tracker/internal/stats"
)

// CatalogPath is the SLA configuration file stored next to a snapshot.
func CatalogPath(snapshotPath string) string {
	return strings.TrimSuffix(snapshotPath, ".jsonl") + "_catalog.json"
}

// ReadCatalog loads a catalog written by WriteCatalog. A missing file yields
// an empty catalog so default thresholds apply.
func ReadCatalog(path string) (stats.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats.Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var configs []stats.SLAConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}

	catalog := make(stats.Catalog, len(configs))
	for _, c := range configs {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			continue
		}
		c.Code = code
		catalog[code] = c
	}
	return catalog, nil
}

// WriteCatalog stores a catalog as an indented JSON list ordered by code.
func WriteCatalog(path string, catalog stats.Catalog) error {
	configs := make([]stats.SLAConfig, 0, len(catalog))
	for _, c := range catalog {
		configs = append(configs, c)
	}
	slices.SortFunc(configs, func(a, b stats.SLAConfig) int {
		return strings.Compare(a.Code, b.Code)
	})

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

