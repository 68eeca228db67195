package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sla-tracker/internal/report"
	"sla-tracker/internal/requestlog"
	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
	"sla-tracker/internal/visuals"
)

// handleLoadRequests hydrates the window and resets the dashboard criteria to it.
func (s *Server) handleLoadRequests(ctx context.Context, in LoadRequestsInput) (any, error) {
	start, err := parseDateArg("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateArg("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	criteria := stats.NewCriteria(start, end)
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	q := tracker.Query{Start: start, End: end, SLAType: strings.TrimSpace(in.SLAType)}

	var ds requestlog.Dataset
	switch {
	case in.SnapshotPath != "":
		ds, err = s.loadSnapshot(in.SnapshotPath, q)
	case in.Refresh:
		if err = s.provider.Forget(q); err == nil {
			ds, err = s.provider.Hydrate(ctx, q)
		}
	default:
		ds, err = s.provider.Hydrate(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.activeSourceID = ds.SourceID
	s.catalog = ds.Catalog
	s.window = q
	s.offline = ds.Offline
	s.local = ds.Local
	s.mu.Unlock()

	s.session.SetRecords(ds.Records, ds.Catalog)
	snap, err := s.session.SetCriteria(criteria)
	if err != nil {
		return nil, err
	}

	var warnings []string
	switch {
	case ds.Local:
		warnings = append(warnings, fmt.Sprintf("Records come from the local snapshot %s, not the live SLA Tracker API.", in.SnapshotPath))
	case ds.Offline && !ds.CachedThrough.IsZero():
		warnings = append(warnings, fmt.Sprintf("The SLA Tracker API was unreachable; figures come from the cached snapshot, whose latest request is dated %s.", ds.CachedThrough.Format(tracker.DateLayout)))
	case ds.Offline:
		warnings = append(warnings, "The SLA Tracker API was unreachable; figures come from the last cached snapshot and may be stale.")
	}
	if len(ds.Records) == 0 {
		warnings = append(warnings, "No requests fall into the selected window.")
	}
	if len(ds.Catalog) == 0 {
		warnings = append(warnings, fmt.Sprintf("No SLA configuration loaded; the default threshold of %d days applies.", snap.ThresholdDays))
	}

	res := map[string]any{
		"source_id":    ds.SourceID,
		"record_count": len(ds.Records),
		"offline":      ds.Offline,
		"local":        ds.Local,
		"snapshot":     snap,
	}
	guidance := []string{
		"Records are loaded and the dashboard is computed for the whole window.",
		"Use 'list_filter_options' to see the available labels, then 'toggle_filter' or 'set_filter' to narrow the view.",
		"Use 'build_report' to produce the report for the current view.",
	}
	return WrapResponse(res, s.contextInfo(), warnings, guidance), nil
}

func (s *Server) loadSnapshot(path string, q tracker.Query) (requestlog.Dataset, error) {
	records, err := requestlog.ReadSnapshot(path)
	if err != nil {
		return requestlog.Dataset{}, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	catalog, err := requestlog.ReadCatalog(requestlog.CatalogPath(path))
	if err != nil {
		return requestlog.Dataset{}, err
	}

	sourceID := "snapshot_" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s.store.Clear(sourceID)
	s.store.Upsert(sourceID, records)
	log.Info().Str("path", path).Int("count", len(records)).Int("slas", len(catalog)).Msg("Loaded requests from local snapshot")

	return requestlog.Dataset{
		SourceID: sourceID,
		Records:  s.store.InRange(sourceID, q.Start, q.End),
		Catalog:  catalog,
		Local:    true,
	}, nil
}

func (s *Server) handleListFilterOptions() (any, error) {
	opts := s.session.Options()

	var warnings []string
	if len(opts.Blocks) <= 1 {
		warnings = append(warnings, "No records are loaded; call 'load_requests' first.")
	}
	res := map[string]any{
		"options":  opts,
		"criteria": s.session.Criteria(),
	}
	return WrapResponse(res, s.contextInfo(), warnings, nil), nil
}

func (s *Server) handleToggleFilter(in ToggleFilterInput) (any, error) {
	dim, err := stats.ParseDimension(in.Dimension)
	if err != nil {
		return nil, err
	}
	option := strings.TrimSpace(in.Option)
	if option == "" {
		return nil, fmt.Errorf("option is required")
	}

	snap := s.session.Toggle(dim, option)
	res := map[string]any{
		"criteria": s.session.Criteria(),
		"snapshot": snap,
	}
	return WrapResponse(res, s.contextInfo(), emptyViewWarning(snap), nil), nil
}

func (s *Server) handleSetFilter(in SetFilterInput) (any, error) {
	c := s.session.Criteria()

	var err error
	if c.Start, err = updateDateArg("start_date", in.StartDate, c.Start); err != nil {
		return nil, err
	}
	if c.End, err = updateDateArg("end_date", in.EndDate, c.End); err != nil {
		return nil, err
	}

	selections := map[stats.Dimension][]string{
		stats.DimensionSLAType:  in.SLATypes,
		stats.DimensionStatus:   in.Statuses,
		stats.DimensionBlock:    in.TechnologyBlocks,
		stats.DimensionPriority: in.Priorities,
	}
	for dim, values := range selections {
		if len(values) > 0 {
			c = c.WithSelection(dim, stats.Select(values...))
		}
	}

	snap, err := s.session.SetCriteria(c)
	if err != nil {
		return nil, err
	}
	res := map[string]any{
		"criteria": s.session.Criteria(),
		"snapshot": snap,
	}
	return WrapResponse(res, s.contextInfo(), emptyViewWarning(snap), nil), nil
}

func (s *Server) handleSetTrack(in SetTrackInput) (any, error) {
	track, err := parseTrackArg(in.Track)
	if err != nil {
		return nil, err
	}
	snap := s.session.SetTrack(track)
	return WrapResponse(map[string]any{"snapshot": snap}, s.contextInfo(), emptyViewWarning(snap), nil), nil
}

func (s *Server) handleGetKPIs() (any, error) {
	state := s.session.State()
	return WrapResponse(state, s.contextInfo(), emptyViewWarning(state.Snapshot), nil), nil
}

func (s *Server) handleGetTrend(in GetTrendInput) (any, error) {
	points, err := s.session.Trend(in.Bucket)
	if err != nil {
		return nil, err
	}

	res := map[string]any{"points": points}
	if s.cfg.EnableMermaidCharts {
		if chart := visuals.GenerateTrendChart(points); chart != "" {
			res["chart"] = chart
		}
	}

	var warnings []string
	if len(points) == 0 {
		warnings = append(warnings, "The current filter matches no requests; the trend is empty.")
	}
	for _, p := range points {
		if p.Partial {
			warnings = append(warnings, fmt.Sprintf("Bucket %s is still in progress; its figures will change.", p.Label))
		}
	}
	return WrapResponse(res, s.contextInfo(), warnings, nil), nil
}

func (s *Server) handleBuildReport(in BuildReportInput) (any, error) {
	format := strings.ToLower(strings.TrimSpace(in.Format))
	if format != "" && format != "markdown" && format != "json" {
		return nil, fmt.Errorf("unsupported format %q: use markdown or json", in.Format)
	}

	cols := report.Columns(in.Columns...)
	var warnings []string
	if len(in.Columns) > 0 && len(cols) == 0 {
		warnings = append(warnings, "None of the requested columns are known; every column is included.")
	}

	rep := s.session.Report(cols, in.Name)
	if rep.Payload.Compliance.Truncated() || rep.Payload.NonCompliance.Truncated() {
		warnings = append(warnings, fmt.Sprintf("Block tables are capped at %d rows.", report.MaxTableRows))
	}

	if format == "json" {
		return WrapResponse(rep, s.contextInfo(), warnings, nil), nil
	}

	var sb strings.Builder
	sb.WriteString(visuals.RenderMarkdown(rep.Payload, s.cfg.EnableMermaidCharts))
	for _, w := range warnings {
		sb.WriteString("\n> " + w + "\n")
	}
	fmt.Fprintf(&sb, "\n_Report %s generated %s_\n", rep.ID, rep.GeneratedAt.Format(time.RFC3339))
	return sb.String(), nil
}

func (s *Server) handleLogRequest(ctx context.Context, in LogRequestInput) (any, error) {
	date, err := parseDateArg("request_date", in.RequestDate)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, fmt.Errorf("request_date is required")
	}

	s.mu.Lock()
	sourceID, window, catalog := s.activeSourceID, s.window, s.catalog
	s.mu.Unlock()

	inWindow := sourceID != "" &&
		(window.Start.IsZero() || !date.Before(window.Start)) &&
		(window.End.IsZero() || !date.After(window.End))
	target := ""
	if inWindow {
		target = sourceID
	}

	created, err := s.provider.Record(ctx, target, tracker.NewRequest{
		TechnologyBlock: strings.TrimSpace(in.TechnologyBlock),
		RequestType:     strings.TrimSpace(in.RequestType),
		Priority:        strings.TrimSpace(in.Priority),
		RequestDate:     date,
	})
	if err != nil {
		return nil, err
	}

	res := map[string]any{"request": created}
	if inWindow {
		res["snapshot"] = s.session.SetRecords(s.store.InRange(sourceID, window.Start, window.End), catalog)
	}
	return WrapResponse(res, s.contextInfo(), nil, nil), nil
}

func (s *Server) contextInfo() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := map[string]any{
		"track": s.session.Track().String(),
	}
	if s.activeSourceID != "" {
		info["source_id"] = s.activeSourceID
		info["offline"] = s.offline
		info["local"] = s.local
	}
	return info
}

func emptyViewWarning(snap stats.Snapshot) []string {
	if snap.TotalRequests == 0 {
		return []string{"The current filter matches no requests; every KPI is zero."}
	}
	return nil
}
