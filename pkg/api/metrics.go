package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psaab/cmdgraph/pkg/graph"
)

// outcomes lists every compile outcome so each series is exported from
// the first scrape on.
var outcomes = []string{"compiled", "syntax", "malformed_range", "duplicate", "error"}

// graphCollector implements prometheus.Collector, reading the command graph
// on each scrape.
type graphCollector struct {
	srv *Server

	nodes        *prometheus.Desc
	nodesTotal   *prometheus.Desc
	commands     *prometheus.Desc
	definitions  *prometheus.Desc
	compileTotal *prometheus.Desc
}

func newCollector(srv *Server) *graphCollector {
	return &graphCollector{
		srv: srv,

		nodes: prometheus.NewDesc(
			"cmdgraph_nodes",
			"Reachable graph nodes by kind.",
			[]string{"kind"}, nil,
		),
		nodesTotal: prometheus.NewDesc(
			"cmdgraph_nodes_registered",
			"Nodes registered in the store.",
			nil, nil,
		),
		commands: prometheus.NewDesc(
			"cmdgraph_commands",
			"Terminated commands in the graph.",
			nil, nil,
		),
		definitions: prometheus.NewDesc(
			"cmdgraph_definitions",
			"Definitions recorded by the registry.",
			nil, nil,
		),
		compileTotal: prometheus.NewDesc(
			"cmdgraph_compile_total",
			"Compilation attempts by outcome.",
			[]string{"result"}, nil,
		),
	}
}

func (c *graphCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
	ch <- c.nodesTotal
	ch <- c.commands
	ch <- c.definitions
	ch <- c.compileTotal
}

func (c *graphCollector) Collect(ch chan<- prometheus.Metric) {
	if c.srv.registry == nil {
		return
	}
	c.collectGraph(ch, c.srv.store())
	ch <- prometheus.MustNewConstMetric(c.definitions, prometheus.GaugeValue,
		float64(len(c.srv.registry.Definitions())))
	c.collectCompiles(ch)
}

func (c *graphCollector) collectGraph(ch chan<- prometheus.Metric, store *graph.Store) {
	stats := store.Stats()
	for _, k := range graph.Kinds {
		ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue,
			float64(stats.ByKind[k]), k.String())
	}
	ch <- prometheus.MustNewConstMetric(c.nodesTotal, prometheus.GaugeValue, float64(store.Len()))
	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.GaugeValue, float64(stats.Commands()))
}

func (c *graphCollector) collectCompiles(ch chan<- prometheus.Metric) {
	if c.srv.events == nil {
		return
	}
	totals := c.srv.events.Totals()
	for _, o := range outcomes {
		ch <- prometheus.MustNewConstMetric(c.compileTotal, prometheus.CounterValue,
			float64(totals[o]), o)
	}
}
