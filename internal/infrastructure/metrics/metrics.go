package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated  prometheus.Counter
	StageTransitions     *prometheus.CounterVec
	TransitionRejections *prometheus.CounterVec
	TransitionDuration   prometheus.Histogram
	ConflictRetries      prometheus.Counter
	PersistenceErrors    *prometheus.CounterVec
	CommissionAmount     *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Outbox metrics
	OutboxPublished     *prometheus.CounterVec
	OutboxPublishErrors *prometheus.CounterVec

	// Reconciliation metrics
	InconsistentTransactions prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg.
// A nil reg registers with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "commissionledger_transactions_created_total",
			Help: "Total number of commission transactions created",
		}),
		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_stage_transitions_total",
				Help: "Total number of applied stage transitions",
			},
			[]string{"from", "to"},
		),
		TransitionRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_transition_rejections_total",
				Help: "Total number of rejected stage transitions by reason",
			},
			[]string{"reason"},
		),
		TransitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "commissionledger_transition_duration_seconds",
			Help:    "Duration of stage transition operations",
			Buckets: prometheus.DefBuckets,
		}),
		ConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "commissionledger_conflict_retries_total",
			Help: "Total number of retried optimistic concurrency conflicts",
		}),
		PersistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_persistence_errors_total",
				Help: "Total storage failures by operation",
			},
			[]string{"operation"},
		),
		CommissionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commissionledger_commission_amount",
				Help:    "Commission shares assigned on completion",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 1000000},
			},
			[]string{"party"},
		),

		// Cache metrics
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "commissionledger_cache_hits_total",
			Help: "Total transaction cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "commissionledger_cache_misses_total",
			Help: "Total transaction cache misses",
		}),

		// Outbox metrics
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_outbox_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		OutboxPublishErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_outbox_publish_errors_total",
				Help: "Total outbox publish failures by type",
			},
			[]string{"event_type"},
		),

		// Reconciliation metrics
		InconsistentTransactions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "commissionledger_inconsistent_transactions",
			Help: "Number of transactions flagged by the last consistency check",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commissionledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}
