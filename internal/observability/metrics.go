package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agri_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Workflow metrics.
	StageDuration      *prometheus.HistogramVec // labels: stage
	StageOutcomes      *prometheus.CounterVec   // labels: stage, status
	CollaboratorCalls  *prometheus.CounterVec   // labels: collaborator, outcome={success,error,skipped}
	WorkflowRuns       *prometheus.CounterVec   // labels: status
	WorkflowIterations prometheus.Histogram
	Refinements        prometheus.Counter

	// Task lifecycle metrics.
	TasksStarted  prometheus.Counter
	TasksFinished *prometheus.CounterVec // labels: state
	TasksActive   prometheus.Gauge

	// Kafka intake metrics.
	MessagesConsumed        prometheus.Counter
	ResultsPublished        prometheus.Counter
	IntakeErrors            prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      help("Duration of a single analysis stage invocation."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		StageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      help("Stage invocations by stage and status."),
		}, []string{"stage", "status"}),
		CollaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      help("Calls to external collaborators by name and outcome."),
		}, []string{"collaborator", "outcome"}),
		WorkflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      help("Completed workflow runs by top-level status."),
		}, []string{"status"}),
		WorkflowIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_iterations",
			Help:      help("Forecast/verify iterations per workflow run."),
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		Refinements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_refinements_total",
			Help:      help("Horizon refinements triggered by low verification confidence."),
		}),
		TasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      help("Background tasks started."),
		}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      help("Background tasks that reached a terminal state."),
		}, []string{"state"}),
		TasksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_active",
			Help:      help("Background tasks not yet in a terminal state."),
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total workflow requests read from the request topic."),
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      help("Total workflow results written to the result topic."),
		}),
		IntakeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_errors_total",
			Help:      help("Workflow requests that could not be decoded or submitted."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the Kafka intake is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of requests per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-submit-commit cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by method and outcome."),
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by method and result."),
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Geocoding API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when Mapbox geocoding is enabled, 0 otherwise."),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StageDuration,
		m.StageOutcomes,
		m.CollaboratorCalls,
		m.WorkflowRuns,
		m.WorkflowIterations,
		m.Refinements,
		m.TasksStarted,
		m.TasksFinished,
		m.TasksActive,
		m.MessagesConsumed,
		m.ResultsPublished,
		m.IntakeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

// CollaboratorCall counts one call to an external collaborator.
func (m *Metrics) CollaboratorCall(name string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.CollaboratorCalls.WithLabelValues(name, outcome).Inc()
}

// CollaboratorSkipped counts a collaborator that was not configured.
func (m *Metrics) CollaboratorSkipped(name string) {
	m.CollaboratorCalls.WithLabelValues(name, "skipped").Inc()
}
