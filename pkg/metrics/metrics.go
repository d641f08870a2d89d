// Package metrics exports routing and pipeline measurements in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bankerai"

type Config struct {
	Registry       *prometheus.Registry
	LatencyBuckets []float64
	// ProcessCollectors adds the Go runtime and process collectors.
	ProcessCollectors bool
}

func DefaultConfig() Config {
	return Config{
		LatencyBuckets:    []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		ProcessCollectors: true,
	}
}

// Recorder is safe for concurrent use. All methods are no-ops on a nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	agentCalls   *prometheus.CounterVec
	agentLatency *prometheus.HistogramVec
	routes       *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	analyses     *prometheus.CounterVec
}

func New(cfg Config) *Recorder {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{registry: registry}

	r.agentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "agent_calls_total",
			Help:      "Agent invocations by outcome",
		},
		[]string{"agent", "status"},
	)
	r.agentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "agent_latency_seconds",
			Help:      "Agent invocation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"agent"},
	)
	r.routes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "aggregations_total",
			Help:      "Aggregated responses by status",
		},
		[]string{"status"},
	)
	r.stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)
	r.analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Analysis runs by outcome",
		},
		[]string{"status"},
	)

	registry.MustRegister(r.agentCalls, r.agentLatency, r.routes, r.stageLatency, r.analyses)
	if cfg.ProcessCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveAgent(agent string, success bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	r.agentCalls.WithLabelValues(agent, status).Inc()
	r.agentLatency.WithLabelValues(agent).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveRoute(status string) {
	if r == nil {
		return
	}
	r.routes.WithLabelValues(status).Inc()
}

func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveAnalysis(status string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(status).Inc()
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
