package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PublishedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_published_messages_total",
			Help: "Total number of publish completions by outcome (count)",
		},
		[]string{"topic", "status"},
	)

	PublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_publish_duration_ms",
			Help:    "Time from hand-off to publish completion in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"topic", "status"},
	)

	ConsumedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_consumed_messages_total",
			Help: "Total number of messages delivered to the consumer front end (count)",
		},
		[]string{"topic", "partition"},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_extractions_total",
			Help: "Total number of invocation events by extraction strategy (count)",
		},
		[]string{"strategy"},
	)

	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_invocations_total",
			Help: "Total number of invocations by outcome (count)",
		},
		[]string{"status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP entry requests (count)",
		},
		[]string{"route", "status"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"topic", "direction"},
	)

	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_fetch_errors_total",
			Help: "Total number of failed Kafka fetches (count)",
		},
		[]string{"topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejections_total",
			Help: "Total number of calls rejected by an open circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register adds every relay collector to the default registry. Safe to call
// from each entry point.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PublishedMessagesTotal,
			PublishDuration,
			ConsumedMessagesTotal,
			ExtractionsTotal,
			InvocationsTotal,
			HTTPRequestsTotal,
			KafkaMessageSizeBytes,
			FetchErrorsTotal,
			CircuitBreakerState,
			CircuitBreakerRejections,
			RateLimitRequestsTotal,
		)
	})
}

func ObservePublish(topic, status string, duration time.Duration) {
	PublishedMessagesTotal.WithLabelValues(topic, status).Inc()
	PublishDuration.WithLabelValues(topic, status).Observe(float64(duration.Milliseconds()))
}

func IncConsumed(topic string, partition int) {
	ConsumedMessagesTotal.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

func IncExtraction(strategy string) {
	ExtractionsTotal.WithLabelValues(strategy).Inc()
}

func IncInvocation(status string) {
	InvocationsTotal.WithLabelValues(status).Inc()
}

func IncHTTPRequest(route, status string) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

func ObserveKafkaMessageSize(topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(topic, direction).Observe(float64(sizeBytes))
}

func IncFetchError(topic string) {
	FetchErrorsTotal.WithLabelValues(topic).Inc()
}
