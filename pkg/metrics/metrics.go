package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_booking_transitions_total",
		Help: "Booking state machine transitions by transition and result",
	}, []string{"transition", "result"})

	SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_sync_failures_total",
		Help: "Room status sync failures that were logged and swallowed, by source",
	}, []string{"source"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_sweep_runs_total",
		Help: "Reconciliation sweep runs by result",
	}, []string{"result"})

	SweepDiffs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_sweep_diffs_total",
		Help: "Room fields corrected by the reconciliation sweep, by step",
	}, []string{"step"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roomsync_sweep_duration_seconds",
		Help:    "Duration of a full reconciliation sweep",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	InvoicesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_invoices_total",
		Help: "Checkout invoices handed to billing, by result",
	}, []string{"result"})

	TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_housekeeping_tasks_created_total",
		Help: "Housekeeping tasks created, by source and priority",
	}, []string{"source", "priority"})

	KafkaMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_kafka_messages_total",
		Help: "Kafka messages by direction, topic and result",
	}, []string{"direction", "topic", "result"})

	KafkaDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomsync_kafka_duration_seconds",
		Help:    "Kafka publish and handle latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"direction"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomsync_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomsync_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
