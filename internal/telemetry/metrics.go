// Package telemetry exposes the status loop's Prometheus collectors on a
// private registry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wmstatus"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	updateFailures *prometheus.CounterVec
	publishes      *prometheus.CounterVec
	weatherFetches *prometheus.CounterVec
	activeModules  prometheus.Gauge
	lineLength     prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of completed poll ticks.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent updating, rendering and publishing one tick.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}),
		updateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_update_failures_total",
			Help:      "Failed module updates by module.",
		}, []string{"module"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Status line publishes by result.",
		}, []string{"result"}),
		weatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Remote weather requests by result.",
		}, []string{"result"}),
		activeModules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_modules",
			Help:      "Modules activated by the template.",
		}),
		lineLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_line_bytes",
			Help:      "Length of the last published status line.",
		}),
	}
	reg.MustRegister(
		m.ticks,
		m.tickDuration,
		m.updateFailures,
		m.publishes,
		m.weatherFetches,
		m.activeModules,
		m.lineLength,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) UpdateFailed(module string) {
	if m == nil {
		return
	}
	m.updateFailures.WithLabelValues(module).Inc()
}

func (m *Metrics) Published(err error, lineBytes int) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishes.WithLabelValues(ResultError).Inc()
		return
	}
	m.publishes.WithLabelValues(ResultOK).Inc()
	m.lineLength.Set(float64(lineBytes))
}

// WeatherFetched matches the sampler's fetch hook signature.
func (m *Metrics) WeatherFetched(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.weatherFetches.WithLabelValues(ResultError).Inc()
		return
	}
	m.weatherFetches.WithLabelValues(ResultOK).Inc()
}

func (m *Metrics) SetActiveModules(n int) {
	if m == nil {
		return
	}
	m.activeModules.Set(float64(n))
}
