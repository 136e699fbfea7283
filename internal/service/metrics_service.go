package service

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for optimization
// runs and provides lightweight snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	finalEnergy     *prometheus.GaugeVec
	qualityScore    *prometheus.GaugeVec
	solverFallbacks prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheHitRatio   prometheus.Gauge
	cacheWrite      prometheus.Observer

	runCount         uint64
	runDurationTotal uint64
	cacheHitCount    uint64
	cacheMissCount   uint64
}

// RunStats is an aggregated view of recorded runs.
type RunStats struct {
	Runs                 uint64    `json:"runs"`
	AverageRunDurationMs float64   `json:"average_run_duration_ms"`
	CacheHits            uint64    `json:"cache_hits"`
	CacheMisses          uint64    `json:"cache_misses"`
	CacheHitRatio        float64   `json:"cache_hit_ratio"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// NewMetricsService registers the optimizer's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimization_runs_total",
		Help: "Total optimization runs by scenario and outcome",
	}, []string{"scenario", "outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimization_run_duration_seconds",
		Help:    "Duration of optimization runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"scenario"})

	finalEnergy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimization_final_energy",
		Help: "Energy of the most recent schedule per scenario",
	}, []string{"scenario"})

	qualityScore := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimization_quality_score",
		Help: "Quality score of the most recent schedule per scenario",
	}, []string{"scenario"})

	solverFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_fallbacks_total",
		Help: "Runs that fell back to the pre-solver schedule",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total report cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total report cache misses",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of report cache hits to total lookups",
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for report cache writes",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(runsTotal, runDuration, finalEnergy, qualityScore, solverFallbacks, cacheHits, cacheMisses, cacheHitRatio, cacheWrite)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		finalEnergy:     finalEnergy,
		qualityScore:    qualityScore,
		solverFallbacks: solverFallbacks,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheHitRatio:   cacheHitRatio,
		cacheWrite:      cacheWrite,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveRun records one completed optimization run.
func (m *MetricsService) ObserveRun(scenario string, solverOptimized bool, duration time.Duration, finalEnergy, quality float64) {
	if m == nil {
		return
	}
	outcome := "unchanged"
	if solverOptimized {
		outcome = "optimized"
	}
	m.runsTotal.WithLabelValues(scenario, outcome).Inc()
	m.runDuration.WithLabelValues(scenario).Observe(duration.Seconds())
	m.finalEnergy.WithLabelValues(scenario).Set(finalEnergy)
	m.qualityScore.WithLabelValues(scenario).Set(quality)
	atomic.AddUint64(&m.runCount, 1)
	atomic.AddUint64(&m.runDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordSolverFallback counts a run that degraded to the pre-solver
// schedule.
func (m *MetricsService) RecordSolverFallback() {
	if m == nil {
		return
	}
	m.solverFallbacks.Inc()
}

// RecordCacheOperation records a report cache lookup and updates the hit
// ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of a report cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated run statistics.
func (m *MetricsService) Snapshot() RunStats {
	if m == nil {
		return RunStats{}
	}
	runs := atomic.LoadUint64(&m.runCount)
	total := atomic.LoadUint64(&m.runDurationTotal)
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var avgMs float64
	if runs > 0 {
		avgMs = float64(total) / float64(runs) / float64(time.Millisecond)
	}
	var ratio float64
	if lookups := hits + misses; lookups > 0 {
		ratio = float64(hits) / float64(lookups)
	}

	return RunStats{
		Runs:                 runs,
		AverageRunDurationMs: avgMs,
		CacheHits:            hits,
		CacheMisses:          misses,
		CacheHitRatio:        ratio,
		GeneratedAt:          time.Now().UTC(),
	}
}
