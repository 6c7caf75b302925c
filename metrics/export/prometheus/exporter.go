package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydrovia/waterdesk"
	"github.com/hydrovia/waterdesk/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() waterdesk.MetricsSnapshot
	AuditDropped() uint64
}

// Collector reads console metric snapshots on scrape. It holds no state
// of its own, so one collector can serve any number of registries.
type Collector struct {
	source metricsSource

	counterDescs map[waterdesk.MetricID]*prometheus.Desc
	histDescs    map[waterdesk.MetricID]*prometheus.Desc
	droppedDesc  *prometheus.Desc
}

// NewCollector creates a collector reading from the given console.
func NewCollector(console *waterdesk.Console) *Collector {
	return NewCollectorFromSource(console)
}

// NewCollectorFromSource creates a collector from a custom metrics
// source, for tests and wrappers.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counterDescs: make(map[waterdesk.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histDescs:    make(map[waterdesk.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		droppedDesc: prometheus.NewDesc(
			"waterdesk_audit_dropped_total",
			"Dropped audit events due to dispatcher backpressure.",
			nil, nil,
		),
	}

	for _, def := range internaldefs.CounterDefs {
		c.counterDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- c.counterDescs[def.ID]
	}
	for _, def := range internaldefs.HistogramDefs {
		ch <- c.histDescs[def.ID]
	}
	ch <- c.droppedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			c.counterDescs[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}

	for _, def := range internaldefs.HistogramDefs {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(raw)

		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, le := range internaldefs.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		// The core snapshot keeps no running sum; export zero rather than
		// fabricating one.
		ch <- prometheus.MustNewConstHistogram(c.histDescs[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(
		c.droppedDesc,
		prometheus.CounterValue,
		float64(c.source.AuditDropped()),
	)
}

// Handler registers the collector in a private registry and returns the
// scrape handler.
func Handler(console *waterdesk.Console) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(console))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
