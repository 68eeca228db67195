package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"sla-tracker/internal/stats"
)

func TestObserveAPICall(t *testing.T) {
	before := testutil.ToFloat64(apiRequests.WithLabelValues("requests", "error"))
	ObserveAPICall("requests", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(apiRequests.WithLabelValues("requests", "error"))
	if after-before != 1 {
		t.Errorf("error counter moved by %v, want 1", after-before)
	}
}

func TestObserveSnapshot(t *testing.T) {
	before := testutil.ToFloat64(recomputations)
	ObserveSnapshot(stats.Snapshot{TotalRequests: 8, ComplianceRatePct: 62})
	if got := testutil.ToFloat64(recomputations) - before; got != 1 {
		t.Errorf("recomputations moved by %v, want 1", got)
	}
	if got := testutil.ToFloat64(kpiGauges.WithLabelValues("compliance_rate_pct")); got != 62 {
		t.Errorf("compliance gauge = %v, want 62", got)
	}
}
