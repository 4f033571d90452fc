package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
	OutcomeSkipped    = "skipped"
	OutcomeCoalesced  = "coalesced"
	OutcomeRejected   = "rejected"
	OutcomeReadError  = "read_error"
	OutcomeWriteError = "write_error"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "previewcache_requests_total",
	Help: "Preview requests processed, partitioned by outcome",
}, []string{"outcome"})

var extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "previewcache_extraction_duration_seconds",
	Help:    "Time spent reading and materializing a preview artifact",
	Buckets: prometheus.DefBuckets,
})

var extractedBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "previewcache_extracted_bytes_total",
	Help: "Bytes read from data sources for preview extraction",
})

var cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "previewcache_cache_entries",
	Help: "Current number of cached preview locations",
})

var cacheClears = promauto.NewCounter(prometheus.CounterOpts{
	Name: "previewcache_cache_clears_total",
	Help: "Times the preview cache has been cleared",
})

func RecordRequest(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

func RecordExtraction(bytes int64, duration time.Duration) {
	extractedBytes.Add(float64(bytes))
	extractionDuration.Observe(duration.Seconds())
}

func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

func RecordCacheClear() {
	cacheClears.Inc()
}

// Handler exposes the collectors for a host process to mount; the
// library itself never opens a listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
