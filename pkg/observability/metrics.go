package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mint loop metrics
	mintAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawmint_mint_attempts_total",
			Help: "Total number of mint attempts",
		},
		[]string{"agent", "outcome"},
	)

	mintRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clawmint_mint_request_duration_seconds",
			Help:    "Mint request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	mintSleepSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clawmint_mint_sleep_seconds",
			Help: "Current sleep duration chosen after the last attempt",
		},
		[]string{"agent", "outcome"},
	)

	// Indexer recovery metrics
	indexerSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawmint_indexer_syncs_total",
			Help: "Total number of indexer recovery calls",
		},
		[]string{"agent", "status"},
	)

	indexerPostsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawmint_indexer_posts_indexed_total",
			Help: "Posts newly indexed by recovery sweeps",
		},
		[]string{"agent"},
	)

	// Swarm metrics
	activeMiners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clawmint_active_miners",
			Help: "Number of running miner loops",
		},
	)

	registeredAgents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clawmint_registered_agents",
			Help: "Number of agents with valid credentials",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			mintAttemptsTotal,
			mintRequestDuration,
			mintSleepSeconds,
			indexerSyncsTotal,
			indexerPostsIndexed,
			activeMiners,
			registeredAgents,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordMintAttempt records a single mint attempt and its duration
func RecordMintAttempt(agent, outcome string, duration time.Duration) {
	mintAttemptsTotal.WithLabelValues(agent, outcome).Inc()
	mintRequestDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordMintSleep records the sleep chosen after an attempt
func RecordMintSleep(agent, outcome string, sleep time.Duration) {
	mintSleepSeconds.WithLabelValues(agent, outcome).Set(sleep.Seconds())
}

// RecordIndexerSync records an indexer recovery call
func RecordIndexerSync(agent, status string, indexed int) {
	indexerSyncsTotal.WithLabelValues(agent, status).Inc()
	if indexed > 0 {
		indexerPostsIndexed.WithLabelValues(agent).Add(float64(indexed))
	}
}

// SetActiveMiners sets the running miner loops gauge
func SetActiveMiners(count int) {
	activeMiners.Set(float64(count))
}

// SetRegisteredAgents sets the valid agents gauge
func SetRegisteredAgents(count int) {
	registeredAgents.Set(float64(count))
}
