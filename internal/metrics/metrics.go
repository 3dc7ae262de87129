package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmdash",
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmdash",
			Name:      "upstream_requests_total",
			Help:      "Calls to the CRM REST API by endpoint group and status class.",
		},
		[]string{"endpoint", "class"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crmdash",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to the CRM REST API.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmdash",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmdash",
			Name:      "stats_cache_lookups_total",
			Help:      "Stats cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, upstreamRequests, upstreamLatency, tokenRefreshes, cacheLookups)
	})
}

// IncHTTP counts one dashboard request.
func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveUpstream records one call to the remote service. status 0 means the
// request never got a response.
func ObserveUpstream(endpoint string, status int, dur time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	upstreamLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

func IncTokenRefresh(ok bool) {
	if ok {
		tokenRefreshes.WithLabelValues("ok").Inc()
		return
	}
	tokenRefreshes.WithLabelValues("failed").Inc()
}

func IncCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
