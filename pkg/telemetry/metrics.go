package telemetry

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webserver_requests_total",
			Help: "Requests handled, by method and status code.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webserver_request_duration_seconds",
			Help:    "Time spent dispatching a request.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	dispatchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webserver_dispatch_errors_total",
			Help: "Requests that failed before or during invocation, by status code.",
		},
		[]string{"status"},
	)

	hookShortCircuits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webserver_hook_short_circuits_total",
			Help: "Requests answered by a pre-action hook, by action.",
		},
		[]string{"action"},
	)

	staticHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webserver_static_hits_total",
			Help: "Requests served from the content root.",
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(dispatchErrors)
	prometheus.MustRegister(hookShortCircuits)
	prometheus.MustRegister(staticHits)
	prometheus.MustRegister(heapAlloc)
}

// ObserveRequest records one finished request.
func ObserveRequest(method string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveError records a request that ended in an HTTP error.
func ObserveError(status int) {
	dispatchErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveShortCircuit records a hook answering for action.
func ObserveShortCircuit(action string) {
	hookShortCircuits.WithLabelValues(action).Inc()
}

// ObserveStatic records a request served from disk.
func ObserveStatic() {
	staticHits.Inc()
}
