package lshsig

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "lshsig"

var (
	cacheHitsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "family_cache", "hits_total"),
		"Hash-family lookups served from the cache.", nil, nil)
	cacheMissesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "family_cache", "misses_total"),
		"Hash-family lookups not found in the cache.", nil, nil)
	cacheDerivationsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "family_cache", "derivations_total"),
		"Hash families derived from a seed.", nil, nil)
	cacheEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "family_cache", "entries"),
		"Hash families currently cached.", nil, nil)
	rowsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "", "rows_total"),
		"Rows processed, by operation and outcome.",
		[]string{"operation", "result"}, nil)
)

// Collector returns a prometheus.Collector exporting this Hasher's family
// cache counters and per-operation row counts. Register it with at most one
// registry per Hasher.
func (h *Hasher) Collector() prometheus.Collector {
	return hasherCollector{h: h}
}

type hasherCollector struct {
	h *Hasher
}

func (c hasherCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheHitsDesc
	ch <- cacheMissesDesc
	ch <- cacheDerivationsDesc
	ch <- cacheEntriesDesc
	ch <- rowsDesc
}

func (c hasherCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.h.families.Stats()
	ch <- prometheus.MustNewConstMetric(cacheHitsDesc, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(cacheMissesDesc, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(cacheDerivationsDesc, prometheus.CounterValue, float64(stats.Derivations))
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(stats.Entries))

	for op := range numOperations {
		rows := &c.h.rows[op]
		ch <- prometheus.MustNewConstMetric(rowsDesc, prometheus.CounterValue,
			float64(rows.hashed.Load()), op.String(), "hashed")
		ch <- prometheus.MustNewConstMetric(rowsDesc, prometheus.CounterValue,
			float64(rows.null.Load()), op.String(), "null")
	}
}
