package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"sla-tracker/internal/config"
	"sla-tracker/internal/dashboard"
	"sla-tracker/internal/requestlog"
	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
)

type DummyClient struct {
	mu      sync.Mutex
	records []stats.Request
	catalog stats.Catalog
	queries []tracker.Query
}

func (d *DummyClient) FetchRequests(ctx context.Context, q tracker.Query) ([]stats.Request, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, q)
	return append([]stats.Request(nil), d.records...), nil
}

func (d *DummyClient) FetchCatalog(ctx context.Context) (stats.Catalog, error) {
	return d.catalog, nil
}

func (d *DummyClient) CreateRequest(ctx context.Context, nr tracker.NewRequest) (stats.Request, error) {
	if err := nr.Validate(); err != nil {
		return stats.Request{}, err
	}
	block := nr.TechnologyBlock
	return stats.Request{
		ID:              nr.ID,
		TechnologyBlock: &block,
		RequestType:     nr.RequestType,
		Priority:        nr.Priority,
		RequestDate:     nr.RequestDate,
		Status:          stats.StatusPending,
	}, nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func march(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T) (*Server, *DummyClient) {
	t.Helper()
	client := &DummyClient{
		records: []stats.Request{
			{ID: "1", TechnologyBlock: strPtr("DevOps"), RequestType: "Hire", Priority: "High", RequestDate: march(1), ElapsedDays: 10, CompliesSLA1: boolPtr(true)},
			{ID: "2", TechnologyBlock: strPtr("DevOps"), RequestType: "Hire", Priority: "Low", RequestDate: march(5), ElapsedDays: 45, CompliesSLA1: boolPtr(false)},
			{ID: "3", TechnologyBlock: strPtr("Data"), RequestType: "Hire", Priority: "High", RequestDate: march(9), ElapsedDays: 12, CompliesSLA1: boolPtr(true)},
		},
		catalog: stats.Catalog{"SLA1": {Code: "SLA1", ThresholdDays: 30}},
	}
	cfg := &config.AppConfig{CacheDir: t.TempDir(), DefaultThresholdDays: 30}
	return NewServer(cfg, client), client
}

func load(t *testing.T, s *Server, in LoadRequestsInput) ResponseEnvelope {
	t.Helper()
	res, err := s.handleLoadRequests(context.Background(), in)
	if err != nil {
		t.Fatalf("load_requests failed: %v", err)
	}
	return res.(ResponseEnvelope)
}

func snapshotOf(t *testing.T, res any) stats.Snapshot {
	t.Helper()
	data, ok := res.(ResponseEnvelope).Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected response data %T", res.(ResponseEnvelope).Data)
	}
	snap, ok := data["snapshot"].(stats.Snapshot)
	if !ok {
		t.Fatalf("response has no snapshot: %v", data)
	}
	return snap
}

func hasWarning(env ResponseEnvelope, substr string) bool {
	for _, w := range env.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestLoadRequests(t *testing.T) {
	s, client := newTestServer(t)

	env := load(t, s, LoadRequestsInput{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	data := env.Data.(map[string]any)
	if data["record_count"] != 3 || data["offline"] != false || data["local"] != false {
		t.Errorf("unexpected load summary %v", data)
	}
	if data["source_id"] != "requests_2024-03-01_2024-03-31" {
		t.Errorf("source_id = %v", data["source_id"])
	}
	if len(env.Guidance) == 0 {
		t.Error("expected guidance after a load")
	}

	snap := data["snapshot"].(stats.Snapshot)
	if snap.TotalRequests != 3 || snap.CompliantCount != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	// Combined needs both tracks breached.
	if snap.NonCompliantCount != 0 {
		t.Errorf("NonCompliantCount = %d, want 0", snap.NonCompliantCount)
	}

	if len(client.queries) != 1 || !client.queries[0].Start.Equal(march(1)) {
		t.Errorf("unexpected queries %+v", client.queries)
	}

	c := s.Session().Criteria()
	if !c.Start.Equal(march(1)) || !c.End.Equal(march(31)) {
		t.Errorf("criteria not reset to the window: %+v", c)
	}
}

func TestLoadRequests_InvalidInput(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleLoadRequests(context.Background(), LoadRequestsInput{StartDate: "03/01/2024"})
	if err == nil || !strings.Contains(err.Error(), "start_date") {
		t.Errorf("expected a start_date error, got %v", err)
	}

	_, err = s.handleLoadRequests(context.Background(), LoadRequestsInput{StartDate: "2024-04-01", EndDate: "2024-03-01"})
	if !errors.Is(err, stats.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestLoadRequests_FromSnapshotUsesItsCatalog(t *testing.T) {
	s, client := newTestServer(t)
	path := filepath.Join(t.TempDir(), "demo.jsonl")
	if err := requestlog.WriteSnapshot(path, client.records[:2]); err != nil {
		t.Fatal(err)
	}
	catalog := stats.Catalog{
		"SLA1": {Code: "SLA1", ThresholdDays: 10},
		"SLA2": {Code: "SLA2", ThresholdDays: 20},
	}
	if err := requestlog.WriteCatalog(requestlog.CatalogPath(path), catalog); err != nil {
		t.Fatal(err)
	}

	env := load(t, s, LoadRequestsInput{SnapshotPath: path})
	data := env.Data.(map[string]any)
	if data["record_count"] != 2 || data["source_id"] != "snapshot_demo" {
		t.Errorf("unexpected load summary %v", data)
	}
	if data["offline"] != false || data["local"] != true {
		t.Errorf("a snapshot load is local, not offline: %v", data)
	}
	if len(client.queries) != 0 {
		t.Error("snapshot loads never touch the API")
	}
	if hasWarning(env, "unreachable") {
		t.Errorf("snapshot load must not claim the API failed: %v", env.Warnings)
	}
	if !hasWarning(env, "local snapshot") {
		t.Errorf("expected a local snapshot warning, got %v", env.Warnings)
	}
	if hasWarning(env, "default threshold") {
		t.Errorf("the snapshot catalog must be used: %v", env.Warnings)
	}

	if got := data["snapshot"].(stats.Snapshot).ThresholdDays; got != 10 {
		t.Errorf("Combined threshold = %d, want the catalog's SLA1 value 10", got)
	}
	res, err := s.handleSetTrack(SetTrackInput{Track: "SLA2"})
	if err != nil {
		t.Fatal(err)
	}
	if got := snapshotOf(t, res).ThresholdDays; got != 20 {
		t.Errorf("SLA2 threshold = %d, want 20", got)
	}
}

func TestLoadRequests_SnapshotWithoutCatalog(t *testing.T) {
	s, client := newTestServer(t)
	path := filepath.Join(t.TempDir(), "bare.jsonl")
	if err := requestlog.WriteSnapshot(path, client.records); err != nil {
		t.Fatal(err)
	}

	env := load(t, s, LoadRequestsInput{SnapshotPath: path})
	if got := env.Data.(map[string]any)["snapshot"].(stats.Snapshot).ThresholdDays; got != stats.DefaultThresholdDays {
		t.Errorf("threshold = %d, want the default", got)
	}
	if !hasWarning(env, "default threshold") {
		t.Errorf("expected the default threshold warning, got %v", env.Warnings)
	}
}

func TestLoadRequests_Refresh(t *testing.T) {
	s, client := newTestServer(t)
	load(t, s, LoadRequestsInput{})

	client.records = client.records[:1]
	env := load(t, s, LoadRequestsInput{Refresh: true})
	if got := env.Data.(map[string]any)["record_count"]; got != 1 {
		t.Errorf("refresh must drop cached records, got %v", got)
	}
}

func TestToggleFilter(t *testing.T) {
	s, _ := newTestServer(t)
	load(t, s, LoadRequestsInput{})

	res, err := s.handleToggleFilter(ToggleFilterInput{Dimension: "block", Option: "Data"})
	if err != nil {
		t.Fatal(err)
	}
	if got := snapshotOf(t, res).TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}

	if _, err := s.handleToggleFilter(ToggleFilterInput{Dimension: "colour", Option: "red"}); err == nil {
		t.Error("expected an error for an unknown dimension")
	}
	if _, err := s.handleToggleFilter(ToggleFilterInput{Dimension: "priority", Option: "  "}); err == nil {
		t.Error("expected an error for a blank option")
	}
}

func TestToggleFilter_StatusFollowsTrack(t *testing.T) {
	s, client := newTestServer(t)
	client.records = []stats.Request{
		{ID: "split", RequestDate: march(1), CompliesSLA1: boolPtr(false), CompliesSLA2: boolPtr(true)},
		{ID: "ok", RequestDate: march(2), CompliesSLA1: boolPtr(true)},
	}
	load(t, s, LoadRequestsInput{})
	if _, err := s.handleSetTrack(SetTrackInput{Track: "SLA1"}); err != nil {
		t.Fatal(err)
	}

	res, err := s.handleToggleFilter(ToggleFilterInput{Dimension: "status", Option: string(stats.StatusDoesNotComply)})
	if err != nil {
		t.Fatal(err)
	}
	if got := snapshotOf(t, res).TotalRequests; got != 1 {
		t.Errorf("DoesNotComply under SLA1 kept %d records, want 1", got)
	}
}

func TestSetFilter(t *testing.T) {
	s, _ := newTestServer(t)
	load(t, s, LoadRequestsInput{})

	res, err := s.handleSetFilter(SetFilterInput{StartDate: "2024-03-02", Priorities: []string{"High"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := snapshotOf(t, res).TotalRequests; got != 1 {
		t.Errorf("only request 3 is High and after March 2, got %d", got)
	}

	// Clearing the start date keeps the priority selection.
	res, err = s.handleSetFilter(SetFilterInput{StartDate: "open"})
	if err != nil {
		t.Fatal(err)
	}
	if got := snapshotOf(t, res).TotalRequests; got != 2 {
		t.Errorf("TotalRequests = %d, want 2", got)
	}

	before := s.Session().Criteria()
	_, err = s.handleSetFilter(SetFilterInput{StartDate: "2024-05-01", EndDate: "2024-04-01"})
	if !errors.Is(err, stats.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Session().Criteria()) {
		t.Error("a rejected filter must leave the criteria untouched")
	}
}

func TestSetTrackAndKPIs(t *testing.T) {
	s, _ := newTestServer(t)
	load(t, s, LoadRequestsInput{})

	if _, err := s.handleSetTrack(SetTrackInput{Track: "SLA1"}); err != nil {
		t.Fatal(err)
	}

	res, err := s.handleGetKPIs()
	if err != nil {
		t.Fatal(err)
	}
	env := res.(ResponseEnvelope)
	state := env.Data.(dashboard.State)
	if state.Track != "SLA1" || env.Context["track"] != "SLA1" {
		t.Errorf("track not switched: %q / %v", state.Track, env.Context["track"])
	}
	if state.Snapshot.ComplianceRatePct != 66 {
		t.Errorf("ComplianceRatePct = %d, want 66", state.Snapshot.ComplianceRatePct)
	}

	if _, err := s.handleSetTrack(SetTrackInput{Track: "SLA3"}); err == nil {
		t.Error("expected an error for an unknown track")
	}
}

func TestGetKPIs_EmptyViewWarns(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleGetKPIs()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.(ResponseEnvelope).Warnings) == 0 {
		t.Error("expected a warning for an empty view")
	}
}

func TestGetTrend(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.EnableMermaidCharts = true
	load(t, s, LoadRequestsInput{StartDate: "2024-03-01", EndDate: "2024-03-31"})

	res, err := s.handleGetTrend(GetTrendInput{Bucket: "week"})
	if err != nil {
		t.Fatal(err)
	}
	data := res.(ResponseEnvelope).Data.(map[string]any)
	points := data["points"].([]stats.TrendPoint)
	// March 1 to March 9 spans two ISO weeks.
	if len(points) != 2 || points[0].Total != 1 || points[1].Total != 2 {
		t.Errorf("unexpected trend %+v", points)
	}
	if chart, _ := data["chart"].(string); !strings.Contains(chart, "Compliance Trend") {
		t.Errorf("expected a trend chart, got %q", chart)
	}

	if _, err := s.handleGetTrend(GetTrendInput{Bucket: "year"}); err == nil {
		t.Error("expected an error for an unknown bucket")
	}
}

func TestBuildReport(t *testing.T) {
	s, _ := newTestServer(t)
	load(t, s, LoadRequestsInput{StartDate: "2024-03-01", EndDate: "2024-03-31"})

	res, err := s.handleBuildReport(BuildReportInput{Name: "March SLA"})
	if err != nil {
		t.Fatal(err)
	}
	md, ok := res.(string)
	if !ok {
		t.Fatalf("markdown report must be a string, got %T", res)
	}
	for _, want := range []string{"# March SLA", "DevOps"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(md, "```mermaid") {
		t.Error("charts are disabled by default")
	}

	res, err = s.handleBuildReport(BuildReportInput{Format: "json", Columns: []string{"bogus"}})
	if err != nil {
		t.Fatal(err)
	}
	env := res.(ResponseEnvelope)
	rep := env.Data.(dashboard.Report)
	if rep.ID == "" || rep.Payload.Header.Name != "SLA Report" {
		t.Errorf("unexpected report %+v", rep)
	}
	if len(env.Warnings) == 0 {
		t.Error("expected a warning for unknown columns")
	}

	if _, err := s.handleBuildReport(BuildReportInput{Format: "pdf"}); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestBuildReport_WithCharts(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.EnableMermaidCharts = true
	load(t, s, LoadRequestsInput{})

	res, err := s.handleBuildReport(BuildReportInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.(string), "```mermaid") {
		t.Error("expected mermaid charts")
	}
}

func TestLogRequest(t *testing.T) {
	s, _ := newTestServer(t)
	load(t, s, LoadRequestsInput{StartDate: "2024-03-01", EndDate: "2024-03-31"})

	res, err := s.handleLogRequest(context.Background(), LogRequestInput{
		TechnologyBlock: "Security",
		RequestType:     "Hire",
		Priority:        "High",
		RequestDate:     "2024-03-20",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.(ResponseEnvelope).Data.(map[string]any)["snapshot"]; !ok {
		t.Error("an in-window request must refresh the snapshot")
	}
	if got := s.Session().State().RecordCount; got != 4 {
		t.Errorf("RecordCount = %d, want 4", got)
	}

	// Outside the loaded window: logged, but the dashboard is unchanged.
	res, err = s.handleLogRequest(context.Background(), LogRequestInput{
		RequestType: "Hire",
		Priority:    "Low",
		RequestDate: "2024-06-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.(ResponseEnvelope).Data.(map[string]any)["snapshot"]; ok {
		t.Error("an out-of-window request must not refresh the snapshot")
	}
	if got := s.Session().State().RecordCount; got != 4 {
		t.Errorf("RecordCount = %d, want 4", got)
	}

	_, err = s.handleLogRequest(context.Background(), LogRequestInput{RequestType: "Hire", Priority: "Low"})
	if err == nil || !strings.Contains(err.Error(), "request_date") {
		t.Errorf("expected a request_date error, got %v", err)
	}
}

func TestParseTrackArg(t *testing.T) {
	tests := []struct {
		in      string
		want    stats.Track
		wantErr bool
	}{
		{"SLA1", stats.TrackSLA1, false},
		{" sla2", stats.TrackSLA2, false},
		{"Combined", stats.TrackCombined, false},
		{"", stats.TrackCombined, false},
		{"sla9", 0, true},
	}
	for _, tt := range tests {
		got, err := parseTrackArg(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTrackArg(%q): expected an error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseTrackArg(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestUpdateDateArg(t *testing.T) {
	current := march(10)

	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{"", current, false},
		{"OPEN", time.Time{}, false},
		{"2024-03-15", march(15), false},
		{"tomorrow", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := updateDateArg("start_date", tt.value, current)
		if tt.wantErr {
			if err == nil {
				t.Errorf("updateDateArg(%q): expected an error", tt.value)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("updateDateArg(%q) = %v, %v; want %v", tt.value, got, err, tt.want)
		}
	}
}
