// Package metrics holds the Prometheus collectors shared by the parsing pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// cacheLookupsTotal counts cache lookups by result.
	// Labels: result (parse, exact, pattern, miss)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowforge",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by serving tier, or miss",
	}, []string{"result"})

	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowforge",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Backing store errors swallowed by the cache",
	}, []string{"op"})

	// llmCallsTotal counts gateway calls by provider and outcome.
	// Labels: provider, outcome (ok, error, rate_limited)
	llmCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowforge",
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "LLM calls by provider and outcome",
	}, []string{"provider", "outcome"})

	llmLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flowforge",
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "LLM round-trip latency",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider"})

	// pipelineRunsTotal counts finished parses by the path that produced them.
	// Labels: mode (cache, direct_multi, ai_multi, single, fallback_single, error)
	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowforge",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Parse requests by resulting mode",
	}, []string{"mode"})

	extractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flowforge",
		Subsystem: "pipeline",
		Name:      "extraction_failures_total",
		Help:      "Per-process extraction calls skipped inside a batch",
	})
)

// RecordCacheLookup records a cache lookup; result is a tier name or "miss".
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheError records a swallowed backing store error.
func RecordCacheError(op string) {
	cacheErrorsTotal.WithLabelValues(op).Inc()
}

// RecordLLMCall records one provider round trip.
func RecordLLMCall(provider, outcome string, elapsed time.Duration) {
	llmCallsTotal.WithLabelValues(provider, outcome).Inc()
	llmLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordPipelineRun records the terminal mode of a parse.
func RecordPipelineRun(mode string) {
	pipelineRunsTotal.WithLabelValues(mode).Inc()
}

// RecordExtractionFailure records one skipped item of a multi-process batch.
func RecordExtractionFailure() {
	extractionFailuresTotal.Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
