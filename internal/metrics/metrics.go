// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lost_alarm"

// Metrics holds every collector, registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reports       *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	deliveryTime  *prometheus.HistogramVec
	subscriptions *prometheus.CounterVec
	visitors      prometheus.Counter
	onlineUsers   prometheus.Gauge
}

// New creates and registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Location reports received, by channel and result.",
		}, []string{"channel", "result"}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-recipient alert deliveries, by channel and result.",
		}, []string{"channel", "result"}),
		deliveryTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering one message to one recipient.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_requests_total",
			Help:      "Inbound subscribe requests, by action.",
		}, []string{"action"}),
		visitors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visitors_logged_total",
			Help:      "Visitor log entries written.",
		}),
		onlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Currently connected presence sockets.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// ObserveReport counts one location report.
func (m *Metrics) ObserveReport(channel, result string) {
	if m == nil {
		return
	}

	m.reports.WithLabelValues(channel, result).Inc()
}

// ObserveDelivery counts one per-recipient delivery and its duration.
func (m *Metrics) ObserveDelivery(channel string, ok bool, took time.Duration) {
	if m == nil {
		return
	}

	m.deliveries.WithLabelValues(channel, resultLabel(ok)).Inc()
	m.deliveryTime.WithLabelValues(channel).Observe(took.Seconds())
}

// ObserveSubscription counts one subscribe request.
func (m *Metrics) ObserveSubscription(action string) {
	if m == nil {
		return
	}

	m.subscriptions.WithLabelValues(action).Inc()
}

// ObserveVisitor counts one visitor log entry.
func (m *Metrics) ObserveVisitor() {
	if m == nil {
		return
	}

	m.visitors.Inc()
}

// SetOnlineUsers publishes the presence count.
func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}

	m.onlineUsers.Set(float64(n))
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}

	return "error"
}
