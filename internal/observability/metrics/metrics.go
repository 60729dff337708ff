package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

// Collectors are created eagerly so recording works before Init registers
// them, which keeps unit tests free of a metrics server.
var (
	once          sync.Once
	metricsRouter *chi.Mux
	metricsServer *http.Server

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	serviceManagerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "service_manager_latency_seconds",
			Help:    "Latency of systemctl invocations split by action and execution status",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"action", "status"},
	)

	linesProcessedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_lines_processed_total",
			Help: "Number of pool log lines processed per instance",
		},
		[]string{"instance"},
	)

	eventsStoredCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_stored_total",
			Help: "Discrete events split by doc type and whether they were new or duplicates",
		},
		[]string{"doc_type", "result"},
	)

	pipelineRestartCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_restarts_total",
			Help: "Number of times a log pipeline was restarted after failing",
		},
		[]string{"service"},
	)

	pipeWriteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "control_pipe_writes_total",
			Help: "Commands written into daemon control pipes split by command and status",
		},
		[]string{"command", "status"},
	)

	ipcRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipc_requests_total",
			Help: "Control socket requests split by op and status",
		},
		[]string{"op", "status"},
	)

	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)
)

// Init registers the collectors and starts the metrics server.
func Init(metricsHost string, metricsPort int) {
	once.Do(func() {
		registerMetrics()
		initMetricsRouter(metricsHost, metricsPort)
	})
}

// Shutdown stops the metrics server started by Init.
func Shutdown(ctx context.Context) error {
	if metricsServer == nil {
		return nil
	}
	return metricsServer.Shutdown(ctx)
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsHost string, metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	metricsAddr := fmt.Sprintf("%s:%d", metricsHost, metricsPort)
	metricsServer = &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	go func() {
		log.Info().Msgf("Starting metrics server on %s", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		pollerDurationHistogram,
		dbLatency,
		serviceManagerLatency,
		linesProcessedCounter,
		eventsStoredCounter,
		pipelineRestartCounter,
		pipeWriteCounter,
		ipcRequestCounter,
		queueSendErrorCounter,
	)
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordServiceManagerLatency(d time.Duration, action string, failure bool) {
	serviceManagerLatency.WithLabelValues(action, outcome(failure).String()).Observe(d.Seconds())
}

func IncLinesProcessed(instance string) {
	linesProcessedCounter.WithLabelValues(instance).Inc()
}

func RecordEventStored(docType string, inserted bool) {
	result := "duplicate"
	if inserted {
		result = "new"
	}
	eventsStoredCounter.WithLabelValues(docType, result).Inc()
}

func IncPipelineRestarts(service string) {
	pipelineRestartCounter.WithLabelValues(service).Inc()
}

func RecordPipeWrite(command string, failure bool) {
	pipeWriteCounter.WithLabelValues(command, outcome(failure).String()).Inc()
}

func RecordIPCRequest(op string, failure bool) {
	ipcRequestCounter.WithLabelValues(op, outcome(failure).String()).Inc()
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
