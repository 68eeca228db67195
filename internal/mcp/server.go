package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"sla-tracker/internal/config"
	"sla-tracker/internal/dashboard"
	"sla-tracker/internal/requestlog"
	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"
)

// Server holds the state for the MCP server.
type Server struct {
	cfg      *config.AppConfig
	store    *requestlog.Store
	provider *requestlog.Provider
	session  *dashboard.Session

	mu             sync.Mutex
	activeSourceID string
	window         tracker.Query
	catalog        stats.Catalog
	offline        bool
	local          bool
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.AppConfig, client tracker.Client) *Server {
	store := requestlog.NewStore()
	return &Server{
		cfg:      cfg,
		store:    store,
		provider: requestlog.NewProvider(client, store, cfg.CacheDir),
		session:  dashboard.NewSession(cfg.DefaultThresholdDays),
	}
}

// Session exposes the dashboard state backing the tools.
func (s *Server) Session() *dashboard.Session {
	return s.session
}

// Start serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context, version string) error {
	srv := sdk.NewServer(&sdk.Implementation{
		Name:    "sla-tracker",
		Version: version,
	}, nil)
	s.registerTools(srv)

	log.Info().Msg("MCP Server starting Stdio loop")
	return srv.Run(ctx, &sdk.StdioTransport{})
}
