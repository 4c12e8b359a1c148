// Package metrics exports workflow counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

const namespace = "form_agent"

var _ output.MetricsPort = (*Prometheus)(nil)

type Prometheus struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	steps        prometheus.Counter
	parseFailure prometheus.Counter
	actions      *prometheus.CounterVec
}

// New registers the collectors on a private registry so tests and multiple
// containers never collide on the global one.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Workflow runs by outcome.",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of workflow runs.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Perceive-think-act iterations started.",
		}),
		parseFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Model replies that did not parse into an action.",
		}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions dispatched by kind.",
		}, []string{"kind"}),
	}
}

func (p *Prometheus) RunCompleted(reason entity.CompletionReason, d time.Duration) {
	p.observe(string(reason), d)
}

func (p *Prometheus) RunFailed(err error, d time.Duration) {
	p.observe(failureOutcome(err), d)
}

func (p *Prometheus) observe(outcome string, d time.Duration) {
	p.runs.WithLabelValues(outcome).Inc()
	p.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func failureOutcome(err error) string {
	switch {
	case entity.IsElementNotFound(err):
		return "element_not_found"
	case entity.IsUpstream(err):
		return "upstream_error"
	case errors.Is(err, entity.ErrInvalidObjective):
		return "invalid_objective"
	default:
		return "error"
	}
}

func (p *Prometheus) StepStarted() { p.steps.Inc() }
func (p *Prometheus) ParseFailed() { p.parseFailure.Inc() }

func (p *Prometheus) ActionDispatched(kind entity.ActionKind) {
	p.actions.WithLabelValues(string(kind)).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
