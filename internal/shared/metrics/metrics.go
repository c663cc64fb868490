package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed at /metrics.
var Registry = prometheus.NewRegistry()

var (
	ocrRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ocr_requests_total",
		Help: "Total OCR extraction requests",
	})
	uploadRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_requests_total",
		Help: "Total document uploads",
	})
	webhookCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_calls_total",
		Help: "Total OCR webhook calls by classification",
	}, []string{"classification"})
	tasksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasks_created_total",
		Help: "Total follow-up tasks created",
	})
	tasksRateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasks_rate_limited_total",
		Help: "Total task creations rejected by the daily bucket",
	})
	actionsRunTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "actions_run_total",
		Help: "Total action executions",
	})
	generationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_failures_total",
		Help: "Generation calls replaced by a placeholder, by mode",
	}, []string{"mode"})
	dbQueryLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "db_query_latency_seconds",
		Help:    "Database query latency",
		Buckets: prometheus.DefBuckets,
	})
	appErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "app_errors_total",
		Help: "Total 5xx responses",
	})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ocrRequestsTotal,
		uploadRequestsTotal,
		webhookCallsTotal,
		tasksCreatedTotal,
		tasksRateLimitedTotal,
		actionsRunTotal,
		generationFailuresTotal,
		dbQueryLatency,
		appErrorsTotal,
		httpRequestsTotal,
	)
}

func IncOCRRequests() { ocrRequestsTotal.Inc() }
func IncUploads() { uploadRequestsTotal.Inc() }
func IncTasksCreated() { tasksCreatedTotal.Inc() }
func IncTaskRateLimited() { tasksRateLimitedTotal.Inc() }
func IncActionsRun() { actionsRunTotal.Inc() }
func IncAppErrors() { appErrorsTotal.Inc() }

// IncWebhookCalls counts one webhook call under its classification label.
func IncWebhookCalls(classification string) {
	webhookCallsTotal.WithLabelValues(classification).Inc()
}

// IncGenerationFailures counts a placeholder substitution for mode.
func IncGenerationFailures(mode string) {
	generationFailuresTotal.WithLabelValues(mode).Inc()
}

// ObserveDBQuery records the time elapsed since start.
func ObserveDBQuery(start time.Time) {
	dbQueryLatency.Observe(time.Since(start).Seconds())
}

// ObserveHTTP records a finished request. route is the gin full path template.
func ObserveHTTP(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	if status >= 500 {
		appErrorsTotal.Inc()
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// RegisterDB exposes pool statistics for db under dbName. Registering the
// same name twice keeps the first collector.
func RegisterDB(db *sql.DB, dbName string) {
	err := Registry.Register(collectors.NewDBStatsCollector(db, dbName))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		appErrorsTotal.Inc()
	}
}
