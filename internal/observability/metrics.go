package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	activeSessions   prometheus.Gauge
	sessionsDisposed prometheus.Counter

	factOperationsTotal *prometheus.CounterVec
	rulesFiredTotal     prometheus.Counter
	fireDuration        prometheus.Histogram

	commandExecutionTotal    *prometheus.CounterVec
	commandExecutionDuration *prometheus.HistogramVec
	batchExecutionTotal      *prometheus.CounterVec

	registeredListeners *prometheus.GaugeVec
	processEventsTotal  *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "rulesession_active_sessions",
					Help: "Current number of live rule sessions.",
				},
			),
			sessionsDisposed: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "rulesession_sessions_disposed_total",
					Help: "Total rule sessions disposed.",
				},
			),
			factOperationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rulesession_fact_operations_total",
					Help: "Total fact operations by operation and status.",
				},
				[]string{"op", "status"},
			),
			rulesFiredTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "rulesession_rules_fired_total",
					Help: "Total rule activations fired.",
				},
			),
			fireDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "rulesession_fire_duration_seconds",
					Help:    "Duration of fire-all-rules calls in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			commandExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rulesession_command_execution_total",
					Help: "Total command executions by command and status.",
				},
				[]string{"command", "status"},
			),
			commandExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "rulesession_command_execution_duration_seconds",
					Help:    "Command execution duration in seconds by command.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"command"},
			),
			batchExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rulesession_batch_execution_total",
					Help: "Total batch executions by status.",
				},
				[]string{"status"},
			),
			registeredListeners: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "rulesession_registered_listeners",
					Help: "Registered event listeners by kind.",
				},
				[]string{"kind"},
			),
			processEventsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rulesession_process_events_total",
					Help: "Process runtime operations by operation and status.",
				},
				[]string{"op", "status"},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.sessionsDisposed,
			m.factOperationsTotal,
			m.rulesFiredTotal,
			m.fireDuration,
			m.commandExecutionTotal,
			m.commandExecutionDuration,
			m.batchExecutionTotal,
			m.registeredListeners,
			m.processEventsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordSessionCreated() {
	getMetrics().activeSessions.Inc()
}

func RecordSessionDisposed() {
	m := getMetrics()
	m.activeSessions.Dec()
	m.sessionsDisposed.Inc()
}

func RecordFactOperation(op string, success bool) {
	getMetrics().factOperationsTotal.WithLabelValues(op, status(success)).Inc()
}

func RecordFireAllRules(fired int, duration time.Duration) {
	m := getMetrics()
	m.rulesFiredTotal.Add(float64(fired))
	m.fireDuration.Observe(duration.Seconds())
}

func RecordCommandExecution(command string, duration time.Duration, success bool) {
	m := getMetrics()
	m.commandExecutionTotal.WithLabelValues(command, status(success)).Inc()
	m.commandExecutionDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordBatchExecution(success bool) {
	getMetrics().batchExecutionTotal.WithLabelValues(status(success)).Inc()
}

func AddRegisteredListeners(kind string, delta int) {
	getMetrics().registeredListeners.WithLabelValues(kind).Add(float64(delta))
}

func RecordProcessOperation(op string, success bool) {
	getMetrics().processEventsTotal.WithLabelValues(op, status(success)).Inc()
}
