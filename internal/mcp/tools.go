package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// NoInput is the argument type of tools that take no parameters.
type NoInput struct{}

type LoadRequestsInput struct {
	StartDate    string `json:"start_date,omitempty" jsonschema:"Start of the request date window (YYYY-MM-DD). Open when omitted."`
	EndDate      string `json:"end_date,omitempty" jsonschema:"End of the request date window (YYYY-MM-DD), inclusive. Open when omitted."`
	SLAType      string `json:"sla_type,omitempty" jsonschema:"Optional server-side SLA type filter: SLA1, SLA2 or All."`
	SnapshotPath string `json:"snapshot_path,omitempty" jsonschema:"Optional: read records from a local JSONL snapshot instead of the API."`
	Refresh      bool   `json:"refresh,omitempty" jsonschema:"Optional: discard the cached snapshot for this window before fetching."`
}

type ToggleFilterInput struct {
	Dimension string `json:"dimension" jsonschema:"One of sla_type, status, technology_block, priority."`
	Option    string `json:"option" jsonschema:"The label to toggle. 'All' clears the dimension."`
}

type SetFilterInput struct {
	StartDate        string   `json:"start_date,omitempty" jsonschema:"Start date (YYYY-MM-DD). Empty keeps the current value; 'open' clears it."`
	EndDate          string   `json:"end_date,omitempty" jsonschema:"End date (YYYY-MM-DD). Empty keeps the current value; 'open' clears it."`
	SLATypes         []string `json:"sla_types,omitempty" jsonschema:"Selected SLA types. Omit to keep the current selection."`
	Statuses         []string `json:"statuses,omitempty" jsonschema:"Selected statuses. Omit to keep the current selection."`
	TechnologyBlocks []string `json:"technology_blocks,omitempty" jsonschema:"Selected technology blocks. Omit to keep the current selection."`
	Priorities       []string `json:"priorities,omitempty" jsonschema:"Selected priorities. Omit to keep the current selection."`
}

type SetTrackInput struct {
	Track string `json:"track" jsonschema:"SLA track to evaluate: SLA1, SLA2 or Combined."`
}

type BuildReportInput struct {
	Name    string   `json:"name,omitempty" jsonschema:"Report title. Defaults to 'SLA Report'."`
	Columns []string `json:"columns,omitempty" jsonschema:"Columns to include. Omit for every column."`
	Format  string   `json:"format,omitempty" jsonschema:"markdown (default) or json."`
}

type GetTrendInput struct {
	Bucket string `json:"bucket,omitempty" jsonschema:"Bucket size: day, week or month (default)."`
}

type LogRequestInput struct {
	TechnologyBlock string `json:"technology_block,omitempty" jsonschema:"Technology block the position belongs to."`
	RequestType     string `json:"request_type" jsonschema:"Request type label from the catalog."`
	Priority        string `json:"priority" jsonschema:"Priority label."`
	RequestDate     string `json:"request_date" jsonschema:"Date the request was raised (YYYY-MM-DD)."`
}

func (s *Server) registerTools(srv *sdk.Server) {
	addTool(srv, "load_requests",
		"Load SLA request records for a date window from the SLA Tracker API (or a local JSONL snapshot) and recompute the dashboard. MUST be called before any other tool.",
		s.handleLoadRequests)

	addTool(srv, "list_filter_options",
		"List the labels available per filter dimension in the loaded records. Each list starts with 'All'.",
		func(ctx context.Context, _ NoInput) (any, error) { return s.handleListFilterOptions() })

	addTool(srv, "toggle_filter",
		"Toggle one option of one filter dimension, the way a user taps a multi-select chip. Returns the recomputed KPI snapshot.",
		func(ctx context.Context, in ToggleFilterInput) (any, error) { return s.handleToggleFilter(in) })

	addTool(srv, "set_filter",
		"Replace the date range and/or whole selections of the filter. Returns the recomputed KPI snapshot.",
		func(ctx context.Context, in SetFilterInput) (any, error) { return s.handleSetFilter(in) })

	addTool(srv, "set_track",
		"Switch the SLA track (SLA1, SLA2, Combined) the KPIs are evaluated against.",
		func(ctx context.Context, in SetTrackInput) (any, error) { return s.handleSetTrack(in) })

	addTool(srv, "get_kpis",
		"Return the current KPI snapshot: compliance rates, elapsed-day averages, status counts, per-block compliance and the non-compliance breakdown.",
		func(ctx context.Context, _ NoInput) (any, error) { return s.handleGetKPIs() })

	addTool(srv, "get_trend",
		"Bucket the filtered requests by request date and return compliance per bucket under the active track. The current bucket is flagged partial.",
		func(ctx context.Context, in GetTrendInput) (any, error) { return s.handleGetTrend(in) })

	addTool(srv, "build_report",
		"Assemble the current snapshot into a report (header, KPI tiles, per-block tables capped at 15 rows) rendered as markdown or returned as JSON.",
		func(ctx context.Context, in BuildReportInput) (any, error) { return s.handleBuildReport(in) })

	addTool(srv, "log_request",
		"Log a new personnel request event in the SLA Tracker. The dashboard is recomputed when the request falls into the loaded window.",
		s.handleLogRequest)
}

// addTool adapts a handler returning a plain result into an SDK tool.
// Strings are sent verbatim; anything else is sent as indented JSON.
func addTool[In any](srv *sdk.Server, name, description string, handle func(context.Context, In) (any, error)) {
	sdk.AddTool(srv, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, req *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			log.Debug().Str("tool", name).Msg("Tool called")

			res, err := handle(ctx, in)
			if err != nil {
				log.Error().Err(err).Str("tool", name).Msg("Tool failed")
				return &sdk.CallToolResult{
					IsError: true,
					Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
				}, nil, nil
			}

			var text string
			switch v := res.(type) {
			case string:
				text = v
			default:
				text = formatResult(v)
			}
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: text}},
			}, nil, nil
		})
}
