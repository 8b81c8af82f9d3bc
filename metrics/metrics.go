// Package metrics exports the bookkeeping of a seekable stream as Prometheus
// gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	sstm "github.com/sushydev/seekable_stream_go"
)

// StatSource is satisfied by *seekable_stream_go.Stream and
// *seekable_stream_go.LockingStream.
//
// A plain Stream is not safe for concurrent use, so it should only be
// registered with a registry that is gathered from the goroutine owning it.
type StatSource interface {
	Stat() sstm.Stat
}

// Collector implements prometheus.Collector for one stream. Every Collect
// call takes a fresh Stat snapshot.
type Collector struct {
	src StatSource

	capacity   *prometheus.Desc
	used       *prometheus.Desc
	stale      *prometheus.Desc
	fresh      *prometheus.Desc
	free       *prometheus.Desc
	seekOffset *prometheus.Desc
}

var _ prometheus.Collector = &Collector{}

// NewCollector creates a collector whose series carry the label stream=name.
func NewCollector(name string, src StatSource) *Collector {
	labels := prometheus.Labels{"stream": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName("seekable_stream", "", metric),
			help, nil, labels,
		)
	}

	return &Collector{
		src:        src,
		capacity:   desc("capacity_bytes", "Usable size of the stream in bytes"),
		used:       desc("used_bytes", "Bytes held by the stream, stale and fresh"),
		stale:      desc("stale_bytes", "Bytes already read but not yet cleaned"),
		fresh:      desc("fresh_bytes", "Bytes written but not yet read"),
		free:       desc("free_bytes", "Bytes available for writing"),
		seekOffset: desc("seek_offset_bytes", "Current read position relative to the first stale byte"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.used
	ch <- c.stale
	ch <- c.fresh
	ch <- c.free
	ch <- c.seekOffset
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stat := c.src.Stat()

	gauge := func(desc *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
	}

	gauge(c.capacity, stat.Capacity)
	gauge(c.used, stat.UsedSize)
	gauge(c.stale, stat.StaleSize)
	gauge(c.fresh, stat.FreshSize)
	gauge(c.free, stat.FreeSize)
	gauge(c.seekOffset, stat.SeekOffset)
}
