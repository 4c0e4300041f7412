package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resto_agent_query_duration_seconds",
			Help:    "End-to-end query processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"query_type"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	ResponseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_response_total",
			Help: "Responses emitted by kind",
		},
		[]string{"kind"},
	)

	ErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_error_total",
			Help: "Handled errors by type",
		},
		[]string{"error_type"},
	)

	SQLGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resto_agent_sql_generated_total",
			Help: "Total SQL statements generated",
		},
	)

	SQLRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resto_agent_sql_rows_returned",
			Help:    "Rows returned per executed query",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	ClarificationTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resto_agent_clarification_total",
			Help: "Turns that asked the user to disambiguate",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_feedback_total",
			Help: "Feedback submissions by type",
		},
		[]string{"feedback_type"},
	)

	SatisfactionScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "resto_agent_satisfaction_score",
			Help: "Helpful share of recent feedback",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resto_agent_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(ResponseTotal)
	prometheus.MustRegister(ErrorTotal)
	prometheus.MustRegister(SQLGenerated)
	prometheus.MustRegister(SQLRowsReturned)
	prometheus.MustRegister(ClarificationTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(FeedbackTotal)
	prometheus.MustRegister(SatisfactionScore)
	prometheus.MustRegister(LLMTokensUsed)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
