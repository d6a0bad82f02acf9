package observability

import (
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskhub"

var (
	httpBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	dbBuckets   = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2}
)

// Prom holds the application collectors. Label sets are fixed; see the
// constructor for each vector's labels.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	AuthAttempts   *prometheus.CounterVec // action=signup|signin, result
	TaskMutations  *prometheus.CounterVec // op=create|update|complete|delete, result
	StatsCacheHits *prometheus.CounterVec // result=hit|miss|error
}

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal:    counterVec("http", "requests_total", "HTTP requests by method, route template and status.", "method", "route", "status"),
		RequestsDuration: histogramVec("http", "request_duration_seconds", "HTTP request latency.", httpBuckets, "method", "route"),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		}),

		DbQueryDuration: histogramVec("db", "query_duration_seconds", "Store operation latency by logical op.", dbBuckets, "op", "status"),
		DbErrorsTotal:   counterVec("db", "errors_total", "Store errors by logical op and reason.", "op", "class"),

		AuthAttempts:   counterVec("auth", "attempts_total", "Sign-up and sign-in attempts by result.", "action", "result"),
		TaskMutations:  counterVec("tasks", "mutations_total", "Task writes by operation and result.", "op", "result"),
		StatsCacheHits: counterVec("stats_cache", "lookups_total", "Statistics cache lookups by result.", "result"),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.AuthAttempts, p.TaskMutations, p.StatsCacheHits,
	)
	return p
}

// GinHandleMiddleware records request count and latency per route template.
// Scrapes of /metrics itself are not counted.
func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.URL.Path == "/metrics" {
			ctx.Next()
			return
		}

		p.InFlight.Inc()
		start := time.Now()
		defer func() {
			p.InFlight.Dec()

			// unmatched paths would otherwise explode label cardinality
			route := ctx.FullPath()
			if route == "" {
				route = "no_route"
			}
			method := ctx.Request.Method

			p.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
			p.RequestsDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}()

		ctx.Next()
	}
}

// Outcome labels a result counter from an operation's error: "ok", or the
// error kind (not_found, validation_error, ...).
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}
