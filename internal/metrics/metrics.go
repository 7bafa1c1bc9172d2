package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RiskEstimations counts spoilage risk estimations by outcome.
	RiskEstimations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoilage_risk_estimations_total",
			Help: "Total number of spoilage risk estimations by outcome",
		},
		[]string{"outcome"},
	)

	// DemandForecasts counts demand forecasts by outcome.
	DemandForecasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_forecasts_total",
			Help: "Total number of demand forecasts by outcome",
		},
		[]string{"outcome"},
	)

	// ModelLoads counts demand model cache loads by outcome.
	ModelLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_model_loads_total",
			Help: "Total number of demand model cache loads by outcome",
		},
		[]string{"outcome"},
	)

	// ModelCallDuration observes remote model server call latency per operation.
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_call_duration_seconds",
			Help:    "Duration of remote model server calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// HighRiskProducts is the number of high-risk products in the last route plan.
	HighRiskProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "high_risk_products",
			Help: "Number of products above the risk threshold in the last route plan",
		},
	)

	// PlanRefreshes counts scheduled route plan refreshes by outcome.
	PlanRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_plan_refreshes_total",
			Help: "Total number of scheduled route plan refreshes by outcome",
		},
		[]string{"outcome"},
	)
)
