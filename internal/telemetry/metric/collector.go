package metric

import "github.com/prometheus/client_golang/prometheus"

// Stats are values read from the client at scrape time.
type Stats struct {
	Connected       bool
	SessionID       int64
	PoolRunning     int
	WatchedPaths    int
	EventsDelivered uint64
	EventsDropped   uint64
}

// StatsSource provides Stats. Implemented by the client.
type StatsSource interface {
	MetricStats() Stats
}

// Collector exports StatsSource values.
type Collector struct {
	source StatsSource

	connected       *prometheus.Desc
	poolRunning     *prometheus.Desc
	watchedPaths    *prometheus.Desc
	eventsDelivered *prometheus.Desc
	eventsDropped   *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		connected: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "connected"),
			"Whether the client holds a live session.", nil, nil),
		poolRunning: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "running_workers"),
			"Workers currently running a callback.", nil, nil),
		watchedPaths: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "watched_paths"),
			"Paths with at least one registered callback.", nil, nil),
		eventsDelivered: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "events", "delivered_total"),
			"Events handed to the callback pool.", nil, nil),
		eventsDropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "events", "dropped_total"),
			"Events dropped because the callback pool was closed.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connected
	ch <- c.poolRunning
	ch <- c.watchedPaths
	ch <- c.eventsDelivered
	ch <- c.eventsDropped
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.MetricStats()

	connected := 0.0
	if s.Connected {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)
	ch <- prometheus.MustNewConstMetric(c.poolRunning, prometheus.GaugeValue, float64(s.PoolRunning))
	ch <- prometheus.MustNewConstMetric(c.watchedPaths, prometheus.GaugeValue, float64(s.WatchedPaths))
	ch <- prometheus.MustNewConstMetric(c.eventsDelivered, prometheus.CounterValue, float64(s.EventsDelivered))
	ch <- prometheus.MustNewConstMetric(c.eventsDropped, prometheus.CounterValue, float64(s.EventsDropped))
}
