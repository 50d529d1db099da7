package resourcepool

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is anything that can report pool statistics. *Pool[T]
// satisfies it for every T.
type StatsSource interface {
	Stats() Stats
}

// Collector exports the counters of a single pool to Prometheus.
//
// Values are read from the pool on every scrape, so the collector never holds
// stale data and never needs to be updated by the pool itself.
type Collector struct {
	source StatsSource

	constructed *prometheus.Desc
	onLoan      *prometheus.Desc
	available   *prometheus.Desc
	peak        *prometheus.Desc
	acquires    *prometheus.Desc
}

// NewCollector creates a collector for source. name is attached to every
// metric as the "pool" label.
func NewCollector(name string, source StatsSource) *Collector {
	labels := prometheus.Labels{"pool": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName("golandmarks", "resourcepool", metric),
			help, nil, labels)
	}

	return &Collector{
		source:      source,
		constructed: desc("constructed", "Instances built by the factory and still owned by the pool."),
		onLoan:      desc("on_loan", "Instances currently leased out."),
		available:   desc("available", "Instances waiting to be leased."),
		peak:        desc("peak_on_loan", "Highest number of simultaneous leases."),
		acquires:    desc("acquires_total", "Successful acquisitions."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.constructed
	ch <- c.onLoan
	ch <- c.available
	ch <- c.peak
	ch <- c.acquires
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.constructed, prometheus.GaugeValue,
		float64(s.Constructed))
	ch <- prometheus.MustNewConstMetric(c.onLoan, prometheus.GaugeValue,
		float64(s.OnLoan))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue,
		float64(s.Available))
	ch <- prometheus.MustNewConstMetric(c.peak, prometheus.GaugeValue,
		float64(s.Peak))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue,
		float64(s.Acquires))
}
