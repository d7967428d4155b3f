package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	deorbit "github.com/TenessyD/MGA802-projet-final"
)

// Collector bundles the Prometheus metrics of decay runs.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs         *prometheus.CounterVec
	Steps        prometheus.Counter
	DecayDays    *prometheus.HistogramVec
	RunDurations *prometheus.HistogramVec
}

// NewCollector registers the decay metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deorbit_runs_total",
		Help: "Total number of decay runs, labeled by approach and outcome.",
	}, []string{"approach", "outcome"}), "deorbit_runs_total")
	if err != nil {
		return nil, err
	}
	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deorbit_steps_total",
		Help: "Total number of integration steps of successful decay runs.",
	}), "deorbit_steps_total")
	if err != nil {
		return nil, err
	}
	days, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deorbit_decay_days",
		Help:    "Simulated decay time in days.",
		Buckets: []float64{0.1, 1, 7, 30, 90, 365, 3650},
	}, []string{"approach"}), "deorbit_decay_days")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deorbit_run_duration_seconds",
		Help:    "Wall clock duration of decay runs in seconds.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
	}, []string{"approach"}), "deorbit_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Runs:         runs,
		Steps:        steps,
		DecayDays:    days,
		RunDurations: durations,
	}, nil
}

// Outcome returns the label of a run ending with the provided error.
func Outcome(err error) string {
	var conf *deorbit.ConfigurationError
	var div *deorbit.DivergenceError
	switch {
	case err == nil:
		return "reentered"
	case errors.As(err, &conf):
		return "configuration_error"
	case errors.As(err, &div):
		return "divergence"
	default:
		return "error"
	}
}

// Observe records a finished run. The result is ignored when err is not nil.
func (c *Collector) Observe(approach deorbit.Approach, result *deorbit.Result, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(approach.String(), Outcome(err)).Inc()
	c.RunDurations.WithLabelValues(approach.String()).Observe(elapsed.Seconds())
	if err != nil || result == nil {
		return
	}
	c.Steps.Add(float64(result.Steps))
	c.DecayDays.WithLabelValues(approach.String()).Observe(result.Days)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
