package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
	if cumulative != 2 || snap.count != 3 {
		t.Fatalf("unexpected totals cumulative=%d count=%d", cumulative, snap.count)
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncCacheHit()
	ObserveProviderDurationMs(1200)

	out := Render()
	for _, name := range []string{
		"analyses_cache_hits_total",
		"analyses_cache_misses_total",
		"analyses_created_total",
		"provider_failures_total",
		"duplicate_key_total",
		`provider_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}
