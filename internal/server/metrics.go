package server

import (
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "socdemo"

// metrics counts playback activity on a private registry.
type metrics struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsStopped   prometheus.Counter
	actions       *prometheus.CounterVec
	streamClients prometheus.Gauge
	progress      prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &metrics{
		registry: registry,
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_started_total",
			Help:      "Scenario runs started.",
		}),
		runsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_completed_total",
			Help:      "Scenario runs that played every action.",
		}),
		runsStopped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_stopped_total",
			Help:      "Scenario runs stopped before completion.",
		}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "actions_executed_total",
			Help:      "Actions executed, by kind.",
		}, []string{"kind"}),
		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stream_clients",
			Help:      "Connected event stream clients.",
		}),
		progress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "playback_progress_percent",
			Help:      "Progress of the current run.",
		}),
	}
	for _, kind := range scenarios.ActionKinds {
		m.actions.WithLabelValues(string(kind))
	}
	return m
}

func (m *metrics) observe(event sequencer.Event) {
	switch event.Name {
	case sequencer.EventScenarioStarted:
		m.runsStarted.Inc()
		m.progress.Set(0)
	case sequencer.EventScenarioCompleted:
		m.runsCompleted.Inc()
		m.progress.Set(event.Progress)
	case sequencer.EventScenarioStopped:
		if event.RunID != "" {
			m.runsStopped.Inc()
		}
		m.progress.Set(0)
	case sequencer.EventActionExecuted:
		if payload, ok := event.Payload.(sequencer.ActionExecuted); ok {
			m.actions.WithLabelValues(string(payload.Action.Kind)).Inc()
		}
		m.progress.Set(event.Progress)
	}
}
