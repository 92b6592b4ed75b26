// Package metrics exports autodiff graph statistics and training progress
// to Prometheus.
//
// A tensor.Graph is not safe for concurrent use, while Prometheus scrapes
// from its own goroutine. The owning goroutine therefore pushes snapshots
// with Observe; Collect only reads the latest snapshot.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/born-ml/minigrad/internal/tensor"
)

const namespace = "minigrad"

// GraphCollector implements prometheus.Collector over tensor.Stats
// snapshots, one series per graph labelled by graph id.
type GraphCollector struct {
	mu        sync.Mutex
	snapshots map[string]snapshot

	liveNodes       *prometheus.Desc
	liveBytes       *prometheus.Desc
	liveBuffers     *prometheus.Desc
	liveGradBuffers *prometheus.Desc
	nodesCreated    *prometheus.Desc
	buffersFreed    *prometheus.Desc
	retains         *prometheus.Desc
	releases        *prometheus.Desc
}

type snapshot struct {
	name  string
	stats tensor.Stats
}

// NewGraphCollector creates a collector with no graphs observed yet.
func NewGraphCollector() *GraphCollector {
	labels := []string{"graph", "name"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "graph", name), help, labels, nil)
	}
	return &GraphCollector{
		snapshots:       make(map[string]snapshot),
		liveNodes:       desc("live_nodes", "Nodes currently allocated in the graph arena."),
		liveBytes:       desc("live_bytes", "Bytes held by live data and gradient buffers."),
		liveBuffers:     desc("live_buffers", "Data buffers not yet freed."),
		liveGradBuffers: desc("live_grad_buffers", "Gradient buffers not yet freed."),
		nodesCreated:    desc("nodes_created_total", "Nodes created since the graph was made."),
		buffersFreed:    desc("buffers_freed_total", "Data buffers freed since the graph was made."),
		retains:         desc("retains_total", "Retain calls on graph nodes."),
		releases:        desc("releases_total", "Release calls that dropped a reference."),
	}
}

// Observe records the current statistics of g. It must be called from the
// goroutine that owns g.
func (c *GraphCollector) Observe(g *tensor.Graph) {
	s := snapshot{name: g.Name(), stats: g.Stats()}
	c.mu.Lock()
	c.snapshots[g.ID().String()] = s
	c.mu.Unlock()
}

// Forget drops the series of g.
func (c *GraphCollector) Forget(g *tensor.Graph) {
	c.mu.Lock()
	delete(c.snapshots, g.ID().String())
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *GraphCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liveNodes
	ch <- c.liveBytes
	ch <- c.liveBuffers
	ch <- c.liveGradBuffers
	ch <- c.nodesCreated
	ch <- c.buffersFreed
	ch <- c.retains
	ch <- c.releases
}

// Collect implements prometheus.Collector.
func (c *GraphCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, s := range c.snapshots {
		st := s.stats
		gauge := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, id, s.name)
		}
		counter := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, id, s.name)
		}
		gauge(c.liveNodes, float64(st.LiveNodes()))
		gauge(c.liveBytes, float64(st.LiveBytes))
		gauge(c.liveBuffers, float64(st.LiveBuffers()))
		gauge(c.liveGradBuffers, float64(st.LiveGradBuffers()))
		counter(c.nodesCreated, float64(st.NodesCreated))
		counter(c.buffersFreed, float64(st.BuffersFreed))
		counter(c.retains, float64(st.Retains))
		counter(c.releases, float64(st.Releases))
	}
}
