package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	rebuildDuration prom.Histogram
	rebuilds        *prom.CounterVec
	reloads         *prom.CounterVec
	sourceChanges   prom.Counter
	reloadClients   prom.Gauge
	themeSyncs      prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		rebuildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "doctools",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of documentation rebuilds",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doctools",
			Name:      "rebuilds_total",
			Help:      "Documentation rebuilds by outcome",
		}, []string{"outcome"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doctools",
			Name:      "reloads_total",
			Help:      "Browser reload notifications by strategy",
		}, []string{"strategy"}),
		sourceChanges: prom.NewCounter(prom.CounterOpts{
			Namespace: "doctools",
			Name:      "source_changes_total",
			Help:      "Changed documentation sources detected by the poller",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "doctools",
			Name:      "reload_clients",
			Help:      "Connected server-sent-events reload clients",
		}),
		themeSyncs: prom.NewCounter(prom.CounterOpts{
			Namespace: "doctools",
			Name:      "theme_syncs_total",
			Help:      "Theme bundle outputs copied into the build directory",
		}),
	}
	reg.MustRegister(pr.rebuildDuration, pr.rebuilds, pr.reloads, pr.sourceChanges, pr.reloadClients, pr.themeSyncs)
	return pr
}

func (p *PrometheusRecorder) ObserveRebuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.rebuildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRebuild(outcome Outcome) {
	if p == nil {
		return
	}
	p.rebuilds.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncReload(strategy string) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(strategy).Inc()
}

func (p *PrometheusRecorder) AddSourceChanges(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.sourceChanges.Add(float64(n))
}

func (p *PrometheusRecorder) SetReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}

func (p *PrometheusRecorder) IncThemeSync() {
	if p == nil {
		return
	}
	p.themeSyncs.Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
