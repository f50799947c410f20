// Package metrics provides the Prometheus collectors for contesthub.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arabcoders/contesthub/go/internal/models"
)

const namespace = "contesthub"

// Collector implements the metrics interfaces of the contests app and the gateway
type Collector struct {
	fetchTotal     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	contests       *prometheus.GaugeVec
	discrepancies  prometheus.Gauge
	refreshTotal   *prometheus.CounterVec
	publishTotal   *prometheus.CounterVec
	connections    prometheus.Gauge
	ticksBroadcast prometheus.Counter
}

// NewCollector creates a Collector and registers it on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Remote bucket fetches by bucket and result",
		}, []string{"bucket", "result"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_latency_seconds",
			Help:      "Remote bucket fetch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"bucket"}),
		contests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "contests",
			Help:      "Contests in the last aggregate by status",
		}, []string{"status"}),
		discrepancies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_discrepancies",
			Help:      "Contests whose reported status disagrees with their timestamps",
		}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Gateway snapshot refreshes by result",
		}, []string{"result"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_total",
			Help:      "Snapshot publishes to the message bus by result",
		}, []string{"result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open countdown WebSocket connections",
		}),
		ticksBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "countdown_ticks_total",
			Help:      "Countdown ticks broadcast to clients",
		}),
	}

	reg.MustRegister(
		c.fetchTotal,
		c.fetchLatency,
		c.contests,
		c.discrepancies,
		c.refreshTotal,
		c.publishTotal,
		c.connections,
		c.ticksBroadcast,
	)

	return c
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordFetch records one bucket fetch
func (c *Collector) RecordFetch(bucket models.ContestStatus, success bool, duration time.Duration) {
	c.fetchTotal.WithLabelValues(string(bucket), result(success)).Inc()
	c.fetchLatency.WithLabelValues(string(bucket)).Observe(duration.Seconds())
}

// RecordAggregate records the size of the latest aggregate
func (c *Collector) RecordAggregate(counts map[models.ContestStatus]int, discrepancies int) {
	for _, s := range models.AllContestStatuses() {
		c.contests.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	c.discrepancies.Set(float64(discrepancies))
}

func (c *Collector) RecordRefresh(success bool) {
	c.refreshTotal.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordPublish(success bool) {
	c.publishTotal.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordConnections(n int) {
	c.connections.Set(float64(n))
}

func (c *Collector) RecordTick() {
	c.ticksBroadcast.Inc()
}

// RegisterDroppedTicks exposes a ticker's cumulative drop count as a counter
func RegisterDroppedTicks(reg prometheus.Registerer, dropped func() uint64) {
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "countdown_ticks_dropped_total",
		Help:      "Ticks skipped because a subscriber was busy",
	}, func() float64 {
		return float64(dropped())
	}))
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
