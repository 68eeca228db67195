package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sla-tracker/internal/dashboard"
	"sla-tracker/internal/requestlog"
	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
)

// viewFlags selects the records and filters shared by the offline commands.
type viewFlags struct {
	from       string
	to         string
	slaType    string
	snapshot   string
	refresh    bool
	track      string
	blocks     []string
	statuses   []string
	priorities []string
	slaTypes   []string
}

func (v *viewFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&v.from, "from", "", "start of the request date window (YYYY-MM-DD)")
	f.StringVar(&v.to, "to", "", "end of the request date window (YYYY-MM-DD)")
	f.StringVar(&v.slaType, "sla-type", "", "SLA type passed to the API query (SLA1, SLA2 or All)")
	f.StringVar(&v.snapshot, "snapshot", "", "read records from a JSONL snapshot instead of the API")
	f.BoolVar(&v.refresh, "refresh", false, "discard the cached snapshot for the window before fetching")
	f.StringVar(&v.track, "track", "combined", "SLA track: sla1, sla2 or combined")
	f.StringSliceVar(&v.blocks, "block", nil, "restrict to technology blocks")
	f.StringSliceVar(&v.statuses, "status", nil, "restrict to statuses")
	f.StringSliceVar(&v.priorities, "priority", nil, "restrict to priorities")
	f.StringSliceVar(&v.slaTypes, "sla", nil, "restrict to SLA type labels")
}

func (v *viewFlags) criteria() (stats.Criteria, error) {
	start, err := optionalDate("--from", v.from)
	if err != nil {
		return stats.Criteria{}, err
	}
	end, err := optionalDate("--to", v.to)
	if err != nil {
		return stats.Criteria{}, err
	}

	c := stats.NewCriteria(start, end)
	selections := map[stats.Dimension][]string{
		stats.DimensionSLAType:  v.slaTypes,
		stats.DimensionStatus:   v.statuses,
		stats.DimensionBlock:    v.blocks,
		stats.DimensionPriority: v.priorities,
	}
	for dim, values := range selections {
		if len(values) > 0 {
			c = c.WithSelection(dim, stats.Select(values...))
		}
	}
	return c, c.Validate()
}

// openSession loads the records the flags describe into a fresh dashboard session.
func (v *viewFlags) openSession(ctx context.Context) (*dashboard.Session, error) {
	c, err := v.criteria()
	if err != nil {
		return nil, err
	}

	var records []stats.Request
	var catalog stats.Catalog
	if v.snapshot != "" {
		if records, err = requestlog.ReadSnapshot(v.snapshot); err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", v.snapshot, err)
		}
		if catalog, err = requestlog.ReadCatalog(requestlog.CatalogPath(v.snapshot)); err != nil {
			return nil, err
		}
	} else {
		provider := requestlog.NewProvider(trackerClient, requestlog.NewStore(), cfg.CacheDir)
		q := tracker.Query{Start: c.Start, End: c.End, SLAType: v.slaType}
		if v.refresh {
			if err := provider.Forget(q); err != nil {
				return nil, err
			}
		}
		ds, err := provider.Hydrate(ctx, q)
		if err != nil {
			return nil, err
		}
		if ds.Offline {
			log.Warn().Str("source", ds.SourceID).Time("cachedThrough", ds.CachedThrough).Msg("API unreachable, using cached snapshot")
		}
		records, catalog = ds.Records, ds.Catalog
	}

	session := dashboard.NewSession(cfg.DefaultThresholdDays)
	session.SetRecords(records, catalog)
	session.SetTrack(stats.ParseTrack(v.track))
	if _, err := session.SetCriteria(c); err != nil {
		return nil, err
	}
	return session, nil
}

func optionalDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := tracker.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", flag, value)
	}
	return t, nil
}
