package requestlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
)

// Provider orchestrates fetching and snapshot caching.
type Provider struct {
	client   tracker.Client
	store    *Store
	cacheDir string
}

func NewProvider(client tracker.Client, store *Store, cacheDir string) *Provider {
	return &Provider{
		client:   client,
		store:    store,
		cacheDir: cacheDir,
	}
}

// Dataset is the result of one load: the records for a window plus the SLA catalog.
// Offline marks a cached fallback after a failed fetch; CachedThrough is then the
// most recent request date held in the cache. Local marks a snapshot file load.
type Dataset struct {
	SourceID      string
	Records       []stats.Request
	Catalog       stats.Catalog
	Offline       bool
	CachedThrough time.Time
	Local         bool
}

// SourceID names the partition a query is stored under.
func SourceID(q tracker.Query) string {
	parts := []string{"requests"}
	if !q.Start.IsZero() {
		parts = append(parts, q.Start.Format(tracker.DateLayout))
	}
	if !q.End.IsZero() {
		parts = append(parts, q.End.Format(tracker.DateLayout))
	}
	if t := strings.TrimSpace(q.SLAType); t != "" && t != stats.All {
		parts = append(parts, strings.ToLower(t))
	}
	return strings.Join(parts, "_")
}

// Hydrate fetches records and the catalog concurrently. Fresh records are
// merged into the store and persisted. When the fetch fails for any reason
// other than authentication, a cached snapshot for the same window is served
// instead. A failed catalog fetch yields an empty catalog.
func (p *Provider) Hydrate(ctx context.Context, q tracker.Query) (Dataset, error) {
	sourceID := SourceID(q)
	if p.cacheDir != "" && p.store.Count(sourceID) == 0 {
		if err := p.store.Load(p.cacheDir, sourceID); err != nil {
			log.Warn().Err(err).Str("source", sourceID).Msg("Ignoring unreadable snapshot")
		}
	}

	var (
		records  []stats.Request
		catalog  stats.Catalog
		fetchErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = p.client.FetchRequests(gctx, q)
		if err != nil {
			fetchErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		catalog, err = p.client.FetchCatalog(gctx)
		if err != nil {
			log.Warn().Err(err).Msg("SLA catalog unavailable, default thresholds apply")
			catalog = stats.Catalog{}
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	if fetchErr != nil {
		if errors.Is(fetchErr, tracker.ErrUnauthorized) || p.store.Count(sourceID) == 0 {
			return Dataset{}, fmt.Errorf("failed to fetch requests: %w", fetchErr)
		}
		log.Warn().Err(fetchErr).Str("source", sourceID).Msg("Serving cached snapshot")
		return Dataset{
			SourceID:      sourceID,
			Records:       p.store.InRange(sourceID, q.Start, q.End),
			Catalog:       catalog,
			Offline:       true,
			CachedThrough: p.store.Latest(sourceID),
		}, nil
	}

	added, updated := p.store.Upsert(sourceID, records)
	log.Info().Str("source", sourceID).Int("added", added).Int("updated", updated).Msg("Requests hydrated")
	if p.cacheDir != "" {
		if err := p.store.Save(p.cacheDir, sourceID); err != nil {
			log.Warn().Err(err).Str("source", sourceID).Msg("Failed to persist snapshot")
		}
	}

	return Dataset{
		SourceID: sourceID,
		Records:  p.store.InRange(sourceID, q.Start, q.End),
		Catalog:  catalog,
	}, nil
}

// Forget drops the cached records and the persisted snapshot of a query's
// source, so the next Hydrate starts from the API alone.
func (p *Provider) Forget(q tracker.Query) error {
	sourceID := SourceID(q)
	p.store.Clear(sourceID)
	if p.cacheDir == "" {
		return nil
	}
	if err := DeleteSnapshot(p.cacheDir, sourceID); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", sourceID, err)
	}
	log.Info().Str("source", sourceID).Msg("Cached snapshot discarded")
	return nil
}

// Record logs a new request upstream and merges it into the matching source.
func (p *Provider) Record(ctx context.Context, sourceID string, nr tracker.NewRequest) (stats.Request, error) {
	created, err := p.client.CreateRequest(ctx, nr)
	if err != nil {
		return stats.Request{}, err
	}
	if sourceID != "" {
		p.store.Upsert(sourceID, []stats.Request{created})
	}
	return created, nil
}
