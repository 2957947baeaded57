package chunks

import (
	"fmt"
	"net/http"

	"github.com/gekko3d/chunks/chunkrt/rt/build"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports per-frame render manager state to Prometheus.
type Metrics struct {
	visible  prometheus.Gauge
	columns  prometheus.Gauge
	sections prometheus.Gauge
	urgent   prometheus.Gauge
	normal   prometheus.Gauge
	pending  prometheus.Gauge

	submitted prometheus.Counter
	applied   prometheus.Counter
	discarded prometheus.Counter
	failed    prometheus.Counter

	prev build.Stats
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "chunks"
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Metrics{
		visible:   gauge("visible_sections", "Sections admitted to a render list last frame."),
		columns:   gauge("loaded_columns", "Loaded chunk columns."),
		sections:  gauge("loaded_sections", "Loaded sections (columns x 16)."),
		urgent:    gauge("urgent_queue_length", "Urgent rebuilds queued at the start of scheduling."),
		normal:    gauge("normal_queue_remaining", "Normal rebuilds carried past the budget."),
		pending:   gauge("builds_pending", "Builds submitted and not yet applied."),
		submitted: counter("builds_submitted_total", "Section builds submitted."),
		applied:   counter("builds_applied_total", "Section builds uploaded."),
		discarded: counter("builds_discarded_total", "Stale build results dropped."),
		failed:    counter("builds_failed_total", "Section builds that returned an error."),
	}

	for _, c := range []prometheus.Collector{
		m.visible, m.columns, m.sections, m.urgent, m.normal, m.pending,
		m.submitted, m.applied, m.discarded, m.failed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register chunk metrics: %w", err)
		}
	}
	return m, nil
}

type frameStats struct {
	visible int
	columns int
	urgent  int
	carried int
	pending int
	builds  build.Stats
}

func (m *Metrics) observe(s frameStats) {
	if m == nil {
		return
	}
	m.visible.Set(float64(s.visible))
	m.columns.Set(float64(s.columns))
	m.sections.Set(float64(s.columns * core.SectionsPerColumn))
	m.urgent.Set(float64(s.urgent))
	m.normal.Set(float64(s.carried))
	m.pending.Set(float64(s.pending))

	// builder stats are cumulative; counters take the delta
	m.submitted.Add(float64(s.builds.Submitted - m.prev.Submitted))
	m.applied.Add(float64(s.builds.Applied - m.prev.Applied))
	m.discarded.Add(float64(s.builds.Discarded - m.prev.Discarded))
	m.failed.Add(float64(s.builds.Failed - m.prev.Failed))
	m.prev = s.builds
}

// ServeMetrics exposes the default registry on addr (for example ":2112") without blocking.
func ServeMetrics(addr string, log Logger) {
	log = OrNop(log)
	go func() {
		log.Infof("metrics available at %s/metrics", addr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server: %v", err)
		}
	}()
}
