package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recordkv"

// Stats counts server activity. It implements prometheus.Collector so the
// same counters back both Snapshot and the /metrics endpoint.
type Stats struct {
	gets        atomic.Int64
	sets        atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
	errors      atomic.Int64
	conns       atomic.Int64
	activeConns atomic.Int64
	dropped     atomic.Int64
	panics      atomic.Int64

	keys func() int

	opsDesc     *prometheus.Desc
	lookupDesc  *prometheus.Desc
	errorsDesc  *prometheus.Desc
	connsDesc   *prometheus.Desc
	activeDesc  *prometheus.Desc
	droppedDesc *prometheus.Desc
	panicsDesc  *prometheus.Desc
	keysDesc    *prometheus.Desc
}

func New() *Stats {
	return &Stats{
		opsDesc: prometheus.NewDesc(namespace+"_commands_total",
			"Commands executed, by command.", []string{"cmd"}, nil),
		lookupDesc: prometheus.NewDesc(namespace+"_lookups_total",
			"Get lookups, by result.", []string{"result"}, nil),
		errorsDesc: prometheus.NewDesc(namespace+"_command_errors_total",
			"Command lines rejected by the parser.", nil, nil),
		connsDesc: prometheus.NewDesc(namespace+"_connections_total",
			"Connections accepted.", nil, nil),
		activeDesc: prometheus.NewDesc(namespace+"_connections_active",
			"Connections currently being served.", nil, nil),
		droppedDesc: prometheus.NewDesc(namespace+"_connections_dropped_total",
			"Connections closed on a transport error without a response.", nil, nil),
		panicsDesc: prometheus.NewDesc(namespace+"_panics_recovered_total",
			"Panics recovered while serving a connection.", nil, nil),
		keysDesc: prometheus.NewDesc(namespace+"_keys",
			"Keys held by the store.", nil, nil),
	}
}

// TrackKeys makes the collector report fn() as the key gauge.
func (s *Stats) TrackKeys(fn func() int) {
	s.keys = fn
}

func (s *Stats) RecordGet(hit bool) {
	s.gets.Add(1)
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

func (s *Stats) RecordSet() {
	s.sets.Add(1)
}

func (s *Stats) RecordError() {
	s.errors.Add(1)
}

func (s *Stats) ConnOpened() {
	s.conns.Add(1)
	s.activeConns.Add(1)
}

func (s *Stats) ConnClosed() {
	s.activeConns.Add(-1)
}

func (s *Stats) RecordDropped() {
	s.dropped.Add(1)
}

func (s *Stats) RecordPanic() {
	s.panics.Add(1)
}

func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"gets":         s.gets.Load(),
		"sets":         s.sets.Load(),
		"hits":         s.hits.Load(),
		"misses":       s.misses.Load(),
		"errors":       s.errors.Load(),
		"conns":        s.conns.Load(),
		"active_conns": s.activeConns.Load(),
		"dropped":      s.dropped.Load(),
		"panics":       s.panics.Load(),
	}
}

func (s *Stats) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.opsDesc
	ch <- s.lookupDesc
	ch <- s.errorsDesc
	ch <- s.connsDesc
	ch <- s.activeDesc
	ch <- s.droppedDesc
	ch <- s.panicsDesc
	ch <- s.keysDesc
}

func (s *Stats) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(s.opsDesc, s.gets.Load(), "get")
	counter(s.opsDesc, s.sets.Load(), "set")
	counter(s.lookupDesc, s.hits.Load(), "hit")
	counter(s.lookupDesc, s.misses.Load(), "miss")
	counter(s.errorsDesc, s.errors.Load())
	counter(s.connsDesc, s.conns.Load())
	counter(s.droppedDesc, s.dropped.Load())
	counter(s.panicsDesc, s.panics.Load())
	ch <- prometheus.MustNewConstMetric(s.activeDesc, prometheus.GaugeValue, float64(s.activeConns.Load()))
	if s.keys != nil {
		ch <- prometheus.MustNewConstMetric(s.keysDesc, prometheus.GaugeValue, float64(s.keys()))
	}
}
