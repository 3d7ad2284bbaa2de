package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	exportDuration prom.Histogram
	exportOutcomes *prom.CounterVec
	documentFetch  *prom.CounterVec
	renderDuration prom.Histogram
	uploadResults  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the gateway metrics.
// A nil registry creates a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		exportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Duration of complete export pipelines",
			Buckets:   prom.DefBuckets,
		}),
		exportOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "export_outcomes_total",
			Help:      "Export outcomes by kind",
		}, []string{"outcome"}),
		documentFetch: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_fetches_total",
			Help:      "Document fetches performed during exports",
		}, []string{"result"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of renderer calls",
			Buckets:   prom.DefBuckets,
		}),
		uploadResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upload_results_total",
			Help:      "Branch upload results",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.exportDuration, pr.exportOutcomes, pr.documentFetch, pr.renderDuration, pr.uploadResults)
	return pr
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	if p == nil || p.exportDuration == nil {
		return
	}
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportOutcome(outcome Outcome) {
	if p == nil || p.exportOutcomes == nil {
		return
	}
	p.exportOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDocumentFetch(success bool) {
	if p == nil || p.documentFetch == nil {
		return
	}
	p.documentFetch.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUploadResult(success bool) {
	if p == nil || p.uploadResults == nil {
		return
	}
	p.uploadResults.WithLabelValues(resultLabel(success)).Inc()
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
