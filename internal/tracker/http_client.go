package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sla-tracker/internal/metrics"
	"sla-tracker/internal/stats"
)

type httpClient struct {
	cfg         Config
	httpClient  *http.Client
	lastRequest time.Time
	throttleMu  sync.Mutex

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value       any
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewHTTPClient creates a client talking to the SLA Tracker REST API.
func NewHTTPClient(cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &httpClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *httpClient) getFromCache(key string) (any, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		log.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
		log.Trace().Str("key", key).Int("count", entry.AccessCount).Msg("Extended cache TTL")
	}

	return entry.Value, true
}

func (c *httpClient) addToCache(key string, value any, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

func (c *httpClient) invalidateRequests() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	for key := range c.cache {
		if strings.HasPrefix(key, "requests:") {
			delete(c.cache, key)
		}
	}
}

func (c *httpClient) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling SLA Tracker request")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *httpClient) authenticateRequest(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
	}
	req.Header.Set("Accept", "application/json")
}

// do executes a request and decodes a JSON body into out.
func (c *httpClient) do(ctx context.Context, endpoint, method, path string, body any, out any) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveAPICall(endpoint, started, err) }()

	if err := c.throttle(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	fullURL := c.cfg.BaseURL + path
	log.Debug().Str("method", method).Str("url", fullURL).Msg("SLA Tracker request")
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return fmt.Errorf("%w: retry after %s seconds", ErrRateLimited, retryAfter)
			}
			return ErrRateLimited
		default:
			return fmt.Errorf("SLA Tracker API returned status %d for %s", resp.StatusCode, endpoint)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *httpClient) FetchRequests(ctx context.Context, q Query) ([]stats.Request, error) {
	params := url.Values{}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.Format(DateLayout))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.Format(DateLayout))
	}
	if q.SLAType != "" && q.SLAType != stats.All {
		params.Set("sla_type", q.SLAType)
	}

	path := "/api/requests"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	cacheKey := "requests:" + path
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.([]stats.Request), nil
	}

	log.Info().Str("start", params.Get("start")).Str("end", params.Get("end")).Str("slaType", q.SLAType).Msg("Requesting SLA records")

	var result RequestsResponse
	if err := c.do(ctx, "requests", http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	records := MapRequests(result.Requests)
	if dropped := len(result.Requests) - len(records); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Some SLA records could not be mapped")
	}

	c.addToCache(cacheKey, records, c.cfg.CacheTTL)
	return records, nil
}

func (c *httpClient) FetchCatalog(ctx context.Context) (stats.Catalog, error) {
	const cacheKey = "catalog"
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.(stats.Catalog), nil
	}

	var result CatalogResponse
	if err := c.do(ctx, "catalog", http.MethodGet, "/api/sla-config", nil, &result); err != nil {
		return nil, err
	}

	catalog := MapCatalog(result.Configs)
	c.addToCache(cacheKey, catalog, 2*c.cfg.CacheTTL)
	return catalog, nil
}

func (c *httpClient) CreateRequest(ctx context.Context, nr NewRequest) (stats.Request, error) {
	if err := nr.Validate(); err != nil {
		return stats.Request{}, err
	}

	body := createRequestBody{
		NewRequest:  nr,
		RequestDate: nr.RequestDate.Format(DateLayout),
	}

	var created RequestDTO
	if err := c.do(ctx, "create_request", http.MethodPost, "/api/requests", body, &created); err != nil {
		return stats.Request{}, err
	}
	c.invalidateRequests()

	r, ok := MapRequest(created)
	if !ok {
		return stats.Request{}, fmt.Errorf("created request %s came back with an invalid request date", nr.ID)
	}
	log.Info().Str("id", r.ID).Msg("Logged personnel request")
	return r, nil
}
