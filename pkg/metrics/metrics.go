package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	Registry *prometheus.Registry

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec

	// Waitlist metrics
	WaitlistSize      prometheus.Gauge
	WaitlistProcessed prometheus.Counter

	// Reminder metrics
	RemindersScheduled prometheus.Counter
	RemindersSent      *prometheus.CounterVec
	RemindersFailed    *prometheus.CounterVec
	DispatchDuration   prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Broker metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all application metrics on a dedicated registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of entity store operations",
		}, []string{"collection", "operation", "status"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of entity store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"collection", "operation"}),

		WaitlistSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waitlist_size",
			Help:      "Current number of entries waiting in the waitlist queue",
		}),
		WaitlistProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_notified_total",
			Help:      "Total number of waitlist entries matched to a freed slot",
		}),

		RemindersScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of reminders scheduled",
		}),
		RemindersSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Total number of reminders delivered",
		}, []string{"type"}),
		RemindersFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Total number of failed reminder delivery attempts",
		}, []string{"type"}),
		DispatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_dispatch_duration_seconds",
			Help:      "Time spent dispatching one batch of due reminders",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events handed to the broker",
		}, []string{"type", "status"}),
	}
}
