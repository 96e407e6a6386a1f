package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	mutations      *prom.CounterVec
	exports        *prom.CounterVec
	exportDuration prom.Histogram
	renderFailures *prom.CounterVec
	openSessions   prom.Gauge
}

// NewPrometheusRecorder builds the collectors and registers them on reg. A nil
// reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		mutations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Editor mutations by action and outcome",
		}, []string{"action", "outcome"}),
		exports: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export runs by outcome",
		}, []string{"outcome"}),
		exportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Wall time of export runs",
			Buckets:   prom.DefBuckets,
		}),
		renderFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "section_render_failures_total",
			Help:      "Sections replaced by an error placeholder during export",
		}, []string{"type"}),
		openSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Editor sessions currently held in memory",
		}),
	}
	reg.MustRegister(pr.mutations, pr.exports, pr.exportDuration, pr.renderFailures, pr.openSessions)
	return pr
}

func (p *PrometheusRecorder) IncMutation(action string, outcome Outcome) {
	p.mutations.WithLabelValues(action, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncExport(outcome Outcome) {
	p.exports.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSectionRenderFailure(sectionType string) {
	p.renderFailures.WithLabelValues(sectionType).Inc()
}

func (p *PrometheusRecorder) SetOpenSessions(n int) { p.openSessions.Set(float64(n)) }
