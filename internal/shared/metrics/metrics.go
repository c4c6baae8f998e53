package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	cacheHitsTotal        atomic.Uint64
	cacheMissesTotal      atomic.Uint64
	analysesCreatedTotal  atomic.Uint64
	providerFailuresTotal atomic.Uint64
	duplicateKeyTotal     atomic.Uint64
	touchFailuresTotal    atomic.Uint64

	providerDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

func IncCacheHit()        { cacheHitsTotal.Add(1) }
func IncCacheMiss()       { cacheMissesTotal.Add(1) }
func IncAnalysisCreated() { analysesCreatedTotal.Add(1) }
func IncProviderFailure() { providerFailuresTotal.Add(1) }
func IncDuplicateKey()    { duplicateKeyTotal.Add(1) }
func IncTouchFailure()    { touchFailuresTotal.Add(1) }

// ObserveProviderDurationMs records a provider round trip in milliseconds.
func ObserveProviderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	providerDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analyses_cache_hits_total", "Analyze requests served from the cache", cacheHitsTotal.Load())
	writeCounter(&buf, "analyses_cache_misses_total", "Analyze requests that required a provider call", cacheMissesTotal.Load())
	writeCounter(&buf, "analyses_created_total", "Analyses persisted", analysesCreatedTotal.Load())
	writeCounter(&buf, "provider_failures_total", "Provider calls that failed or returned unusable output", providerFailuresTotal.Load())
	writeCounter(&buf, "duplicate_key_total", "Concurrent misses that lost the insert race", duplicateKeyTotal.Load())
	writeCounter(&buf, "access_touch_failures_total", "Background access count updates that failed", touchFailuresTotal.Load())
	writeHistogram(&buf, "provider_duration_ms", "Provider call duration in milliseconds", providerDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
