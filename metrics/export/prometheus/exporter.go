package prometheus

import (
	schoolGuard "github.com/MrEthical07/schoolGuard"
	"github.com/MrEthical07/schoolGuard/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
)

type metricsSource interface {
	MetricsSnapshot() schoolGuard.MetricsSnapshot
	AuditDropped() uint64
	AuditFailed() uint64
}

type counterDesc struct {
	id   schoolGuard.MetricID
	desc *prometheus.Desc
}

type histogramDesc struct {
	id   schoolGuard.MetricID
	desc *prometheus.Desc
}

// Collector is a [prometheus.Collector] over an engine's metric snapshot.
type Collector struct {
	source       metricsSource
	counters     []counterDesc
	histograms   []histogramDesc
	auditDropped *prometheus.Desc
	auditFailed  *prometheus.Desc
}

// NewCollector returns a collector for engine.
func NewCollector(engine *schoolGuard.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource returns a collector reading from source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped: prometheus.NewDesc(internaldefs.AuditDroppedName,
			"Audit entries dropped because the dispatcher buffer was full.", nil, nil),
		auditFailed: prometheus.NewDesc(internaldefs.AuditFailedName,
			"Audit entries the sink failed to persist.", nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	for _, hd := range c.histograms {
		ch <- hd.desc
	}
	ch <- c.auditDropped
	ch <- c.auditFailed
}

// Collect implements [prometheus.Collector]. Nothing is emitted for an
// engine with metrics disabled except the audit counters.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for _, cd := range c.counters {
		v, ok := snapshot.Counters[cd.id]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(v))
	}

	for _, hd := range c.histograms {
		raw, ok := snapshot.Histograms[hd.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, bound := range internaldefs.HistogramUpperBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]
		// The sum is estimated from bucket upper bounds.
		ch <- prometheus.MustNewConstHistogram(hd.desc, count, estimateSum(raw), buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
	ch <- prometheus.MustNewConstMetric(c.auditFailed, prometheus.CounterValue, float64(c.source.AuditFailed()))
}

func estimateSum(raw []uint64) float64 {
	buckets := internaldefs.NormalizeBuckets(raw)
	var sum float64
	for i, n := range buckets {
		bound := internaldefs.HistogramUpperBounds[len(internaldefs.HistogramUpperBounds)-1]
		if i < len(internaldefs.HistogramUpperBounds) {
			bound = internaldefs.HistogramUpperBounds[i]
		}
		sum += bound * float64(n)
	}
	return sum
}
