// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	// Ingestion metrics
	CallbacksReceived prometheus.Counter
	IngestOutcomes    *prometheus.CounterVec
	RejectReasons     *prometheus.CounterVec
	MessagesStored    prometheus.Counter

	// Broadcast metrics
	EventsBroadcast      prometheus.Counter
	EventsDropped        prometheus.Counter
	SubscribersConnected prometheus.Gauge

	// Latency metrics
	NodeCallLatency prometheus.Histogram
	IngestLatency   prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "banano_chat_relay"
	}

	return &Metrics{
		CallbacksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "callbacks_received_total",
			Help:      "Total number of webhook callbacks received",
		}),
		IngestOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "outcomes_total",
			Help:      "Terminal outcomes of processed notifications",
		}, []string{"outcome"}),
		RejectReasons: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rejects_total",
			Help:      "Rejected notifications by reason",
		}, []string{"reason"}),
		MessagesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_stored_total",
			Help:      "Total number of new messages persisted",
		}),
		EventsBroadcast: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_total",
			Help:      "Total number of events delivered to subscriber queues",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber queue was full",
		}),
		SubscribersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Currently connected realtime subscribers",
		}),
		NodeCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "call_latency_seconds",
			Help:      "Latency of node RPC calls",
			Buckets:   prometheus.DefBuckets,
		}),
		IngestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "latency_seconds",
			Help:      "End-to-end latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCallback increments the callbacks received counter.
func RecordCallback() {
	DefaultMetrics.CallbacksReceived.Inc()
}

// RecordOutcome records a terminal ingest outcome.
func RecordOutcome(outcome string) {
	DefaultMetrics.IngestOutcomes.WithLabelValues(outcome).Inc()
}

// RecordReject records a rejected notification by reason.
func RecordReject(reason string) {
	DefaultMetrics.RejectReasons.WithLabelValues(reason).Inc()
}

// RecordStored increments the stored messages counter.
func RecordStored() {
	DefaultMetrics.MessagesStored.Inc()
}

// RecordBroadcast increments the broadcast events counter.
func RecordBroadcast() {
	DefaultMetrics.EventsBroadcast.Inc()
}

// RecordBroadcastDrop increments the dropped events counter.
func RecordBroadcastDrop() {
	DefaultMetrics.EventsDropped.Inc()
}

// SetSubscribers sets the connected subscribers gauge.
func SetSubscribers(n int) {
	DefaultMetrics.SubscribersConnected.Set(float64(n))
}

// ObserveNodeCall records the latency of one node RPC call.
func ObserveNodeCall(seconds float64) {
	DefaultMetrics.NodeCallLatency.Observe(seconds)
}

// ObserveIngest records the end-to-end latency of one webhook.
func ObserveIngest(seconds float64) {
	DefaultMetrics.IngestLatency.Observe(seconds)
}
