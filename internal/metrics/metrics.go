package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"sla-tracker/internal/stats"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sla_tracker_api_requests_total",
		Help: "Requests sent to the SLA Tracker API by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sla_tracker_api_request_seconds",
		Help:    "Latency of SLA Tracker API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	recomputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_tracker_recomputations_total",
		Help: "Dashboard recomputation passes (filter and KPI).",
	})

	kpiGauges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sla_tracker_kpi",
		Help: "Latest KPI snapshot values.",
	}, []string{"kpi"})
)

// ObserveAPICall records one API round trip.
func ObserveAPICall(endpoint string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
	apiLatency.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// ObserveSnapshot records a recomputation and publishes its headline KPIs.
func ObserveSnapshot(snap stats.Snapshot) {
	recomputations.Inc()
	kpiGauges.WithLabelValues("total_requests").Set(float64(snap.TotalRequests))
	kpiGauges.WithLabelValues("compliance_rate_pct").Set(float64(snap.ComplianceRatePct))
	kpiGauges.WithLabelValues("non_compliance_rate_pct").Set(float64(snap.NonComplianceRatePct))
	kpiGauges.WithLabelValues("average_elapsed_days").Set(float64(snap.AverageElapsedDays))
	kpiGauges.WithLabelValues("at_risk").Set(float64(snap.AtRiskCount))
	kpiGauges.WithLabelValues("max_overage_days").Set(float64(snap.NonCompliance.MaxOverageDays))
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
