package prometheus

import (
	"net/http"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSource is anything that can snapshot engine metrics.
type MetricsSource interface {
	MetricsSnapshot() hireAuth.MetricsSnapshot
}

type describedCounter struct {
	id   hireAuth.MetricID
	desc *prometheus.Desc
}

type describedHistogram struct {
	id   hireAuth.MetricID
	desc *prometheus.Desc
}

// Collector is a prometheus.Collector reading engine counters on every
// scrape. It holds no state of its own.
type Collector struct {
	source     MetricsSource
	counters   []describedCounter
	histograms []describedHistogram
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for engine.
func NewCollector(engine *hireAuth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

func NewCollectorFromSource(source MetricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]describedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]describedHistogram, 0, len(internaldefs.HistogramDefs)),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, describedCounter{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, describedHistogram{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, d := range c.histograms {
		ch <- d.desc
	}
}

// Collect emits nothing while engine metrics are disabled.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return
	}

	for _, d := range c.counters {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(snapshot.Counters[d.id]))
	}

	for _, d := range c.histograms {
		raw, ok := snapshot.Histograms[d.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(hireAuth.HistogramBounds))
		for i, le := range hireAuth.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]
		// Snapshots carry bucket counts only.
		ch <- prometheus.MustNewConstHistogram(d.desc, count, 0, buckets)
	}
}

// Handler serves the collector from a private registry. Use it when the
// engine metrics are the only series to expose; otherwise register the
// Collector with your own registry.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
