package tracker

import (
	"context"
	"errors"
	"time"

	"sla-tracker/internal/stats"
)

var (
	// ErrUnauthorized is returned on 401/403 responses.
	ErrUnauthorized = errors.New("SLA Tracker authentication failed (401/403), check SLA_API_TOKEN")
	// ErrNotFound is returned on 404 responses.
	ErrNotFound = errors.New("SLA Tracker resource not found")
	// ErrRateLimited is returned on 429 responses.
	ErrRateLimited = errors.New("SLA Tracker rate limit exceeded (429)")
)

// Query selects the requests to fetch. A zero Start or End leaves that side
// open; an empty SLAType fetches every type.
type Query struct {
	Start   time.Time
	End     time.Time
	SLAType string
}

// Client is the interface for interacting with the SLA Tracker API.
type Client interface {
	FetchRequests(ctx context.Context, q Query) ([]stats.Request, error)
	FetchCatalog(ctx context.Context) (stats.Catalog, error)
	CreateRequest(ctx context.Context, req NewRequest) (stats.Request, error)
}

// Config holds the connection settings for the SLA Tracker API.
type Config struct {
	BaseURL string
	Token   string

	// Performance Settings
	RequestDelay time.Duration
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// NewClient creates a new SLA Tracker client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewHTTPClient(cfg)
}
