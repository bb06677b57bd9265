package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks match-list fetches by result
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfeed_fetches_total",
			Help: "Total number of match-list fetches",
		},
		[]string{"result"},
	)

	// FetchErrorsTotal tracks classified fetch errors
	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfeed_fetch_errors_total",
			Help: "Total number of fetch errors by kind",
		},
		[]string{"kind"},
	)

	// SwipesTotal tracks recorded swipes per type
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfeed_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"type"},
	)

	// CircuitState tracks the breaker state (0=closed, 1=open, 2=half-open)
	CircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchfeed_circuit_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)

	// CacheSize tracks cached candidates
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchfeed_cache_size",
			Help: "Number of candidates currently cached",
		},
	)

	// QueueDepth tracks candidates awaiting presentation
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchfeed_queue_depth",
			Help: "Number of candidates queued for presentation",
		},
	)

	// PreloadsCoalesced tracks preload calls merged into an in-flight fetch
	PreloadsCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchfeed_preloads_coalesced_total",
			Help: "Preload calls that shared an already in-flight fetch",
		},
	)

	// DeclineReoffers tracks delayed re-presentations after a decline
	DeclineReoffers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchfeed_decline_reoffers_total",
			Help: "Candidates re-offered after the decline delay",
		},
	)

	// RecoveriesTotal tracks explicit error recoveries
	RecoveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchfeed_recoveries_total",
			Help: "Total number of explicit error recoveries",
		},
	)
)
