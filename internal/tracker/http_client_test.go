package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-tracker/internal/stats"
)

const requestsFixture = `{
  "total": 3,
  "requests": [
    {"id": "1", "technology_block": "DevOps", "request_type": "Hire", "priority": "High",
     "request_date": "2024-03-01", "entry_date": null, "elapsed_days": 40,
     "complies_sla1": false, "complies_sla2": null, "pct_completed_sla1": 133.3, "status": "does_not_comply"},
    {"id": "2", "technology_block": "  ", "request_type": "Hire", "priority": "Low",
     "request_date": "2024-03-02T10:00:00Z", "entry_date": "2024-03-10", "elapsed_days": 8,
     "complies_sla1": true, "status": "Complies"},
    {"id": "3", "request_type": "Hire", "priority": "Low", "request_date": "not-a-date"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(Config{BaseURL: srv.URL + "/", Token: "secret"}), srv
}

func TestFetchRequests(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/requests", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("end"))
		assert.Equal(t, "SLA1", r.URL.Query().Get("sla_type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(requestsFixture))
	})

	q := Query{
		Start:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		SLAType: "SLA1",
	}
	records, err := client.FetchRequests(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, records, 2, "the record with an invalid date is dropped")

	first := records[0]
	assert.Equal(t, "DevOps", first.Block())
	assert.Equal(t, stats.StatusDoesNotComply, first.Status)
	require.NotNil(t, first.CompliesSLA1)
	assert.False(t, *first.CompliesSLA1)
	assert.Nil(t, first.CompliesSLA2)
	assert.Nil(t, first.EntryDate)

	second := records[1]
	assert.Equal(t, stats.Unassigned, second.Block())
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), second.RequestDate)
	require.NotNil(t, second.EntryDate)
	assert.True(t, second.IsResolved())

	// Second call is served from cache.
	_, err = client.FetchRequests(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchRequests_AllTypeOmitsParam(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"requests": []}`))
	})

	records, err := client.FetchRequests(context.Background(), Query{SLAType: stats.All})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchRequests_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		want   error
	}{
		{"Unauthorized", http.StatusUnauthorized, nil, ErrUnauthorized},
		{"Forbidden", http.StatusForbidden, nil, ErrUnauthorized},
		{"NotFound", http.StatusNotFound, nil, ErrNotFound},
		{"RateLimited", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			})
			_, err := client.FetchRequests(context.Background(), Query{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchRequests_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.FetchRequests(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchRequests_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"requests": [`))
	})
	_, err := client.FetchRequests(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFetchCatalog(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sla-config", r.URL.Path)
		_, _ = w.Write([]byte(`{"configs": [
			{"sla_type": "sla1", "threshold_days": 20, "description": "Approval"},
			{"sla_type": "SLA2", "threshold_days": 45, "description": "Onboarding"},
			{"sla_type": "", "threshold_days": 99}
		]}`))
	})

	catalog, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, 2)
	assert.Equal(t, 20, catalog.Threshold(stats.TrackSLA1))
	assert.Equal(t, 45, catalog.Threshold(stats.TrackSLA2))
}

func TestCreateRequest(t *testing.T) {
	var requestsCalls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&requestsCalls, 1)
			_, _ = w.Write([]byte(`{"requests": []}`))
			return
		}

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-05-02", body["request_date"])
		assert.Equal(t, "Frontend", body["technology_block"])
		assert.NotEmpty(t, body["id"])

		w.WriteHeader(http.StatusCreated)
		id, _ := body["id"].(string)
		_ = json.NewEncoder(w).Encode(RequestDTO{
			ID:          id,
			RequestType: "Hire",
			Priority:    "High",
			RequestDate: "2024-05-02",
			Status:      "pending",
		})
	})

	ctx := context.Background()
	_, err := client.FetchRequests(ctx, Query{})
	require.NoError(t, err)

	created, err := client.CreateRequest(ctx, NewRequest{
		TechnologyBlock: "Frontend",
		RequestType:     "Hire",
		Priority:        "High",
		RequestDate:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, stats.StatusPending, created.Status)

	// Creating a request invalidates cached listings.
	_, err = client.FetchRequests(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestsCalls))
}

func TestCreateRequest_Validation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	})
	_, err := client.CreateRequest(context.Background(), NewRequest{RequestType: "Hire"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
	assert.Contains(t, err.Error(), "request_date")
}

func TestThrottle_RespectsContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"requests": []}`))
	})
	hc := client.(*httpClient)
	hc.cfg.RequestDelay = time.Hour
	hc.lastRequest = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchRequests(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
