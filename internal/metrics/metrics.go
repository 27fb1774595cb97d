package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveDiscountDuration tracks the latency of discount resolution
	ResolveDiscountDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "promo_resolve_discount_duration_seconds",
			Help: "Duration of discount resolution requests in seconds",
			Buckets: []float64{
				0.0005, // 0.5ms
				0.001,  // 1ms
				0.005,  // 5ms
				0.01,   // 10ms
				0.025,  // 25ms
				0.05,   // 50ms
				0.1,    // 100ms
				0.25,   // 250ms
				0.5,    // 500ms
				1.0,    // 1s
			},
		},
		[]string{"status"}, // success or failure
	)

	// DiscountDecisions counts resolver outcomes by reason
	DiscountDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_discount_decisions_total",
			Help: "Discount resolver outcomes",
		},
		[]string{"outcome"}, // applied, no_campaign, visitor_ineligible, product_ineligible
	)

	// SweepTransitions counts campaigns moved by the periodic sweeps
	SweepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_sweep_transitions_total",
			Help: "Campaigns transitioned by lifecycle sweeps",
		},
		[]string{"sweep"}, // expired or scheduled
	)

	// StatusTransitions counts manual lifecycle commands
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_status_transitions_total",
			Help: "Manual campaign status transitions",
		},
		[]string{"to", "result"},
	)

	// AnalyticsConsistencyErrors counts orders recorded against campaigns that no longer exist
	AnalyticsConsistencyErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_analytics_consistency_errors_total",
			Help: "Orders attributed to campaigns that no longer exist",
		},
	)

	// ActiveCampaignCacheLookups counts cache lookups by result
	ActiveCampaignCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_active_campaign_cache_lookups_total",
			Help: "Active campaign cache lookups",
		},
		[]string{"result"}, // hit, miss, stale, error
	)
)

// RecordResolveDuration records the duration of a discount resolution
func RecordResolveDuration(status string, duration float64) {
	ResolveDiscountDuration.WithLabelValues(status).Observe(duration)
}

// RecordDecision records a resolver outcome
func RecordDecision(outcome string) {
	DiscountDecisions.WithLabelValues(outcome).Inc()
}

// RecordSweep records the number of campaigns a sweep transitioned
func RecordSweep(sweep string, transitioned int64) {
	SweepTransitions.WithLabelValues(sweep).Add(float64(transitioned))
}

// RecordTransition records a manual status change attempt
func RecordTransition(to, result string) {
	StatusTransitions.WithLabelValues(to, result).Inc()
}

// RecordConsistencyError records an order against a vanished campaign
func RecordConsistencyError() {
	AnalyticsConsistencyErrors.Inc()
}

// RecordCacheLookup records an active campaign cache lookup
func RecordCacheLookup(result string) {
	ActiveCampaignCacheLookups.WithLabelValues(result).Inc()
}
