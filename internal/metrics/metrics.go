// Package metrics exposes Prometheus metrics for plan generation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the plan generator.
type Metrics struct {
	registry *prometheus.Registry

	PlansGenerated     prometheus.Counter
	PlanFailures       *prometheus.CounterVec // fitplan_plan_failures_total{kind}
	ValidationRejects  *prometheus.CounterVec // fitplan_validation_rejects_total{field}
	GenerationDuration prometheus.Histogram
	PDFExports         prometheus.Counter
}

// New registers the metrics on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		PlansGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitplan_plans_generated_total",
			Help: "Workout plans successfully generated",
		}),

		PlanFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplan_plan_failures_total",
			Help: "Plan generations that failed, by failure kind",
		}, []string{"kind"}),

		ValidationRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplan_validation_rejects_total",
			Help: "Form submissions rejected before calling the model, by field",
		}, []string{"field"}),

		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitplan_generation_duration_seconds",
			Help:    "Time spent waiting on the model for one plan",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		PDFExports: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitplan_pdf_exports_total",
			Help: "PDF documents served for download",
		}),
	}
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
