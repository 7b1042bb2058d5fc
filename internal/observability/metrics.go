package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clixon",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total RPC requests sent to the backend.",
		},
		[]string{"op", "success"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clixon",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "success"},
	)
	sessionsEstablished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clixon",
			Subsystem: "session",
			Name:      "established_total",
			Help:      "Sessions established through the hello exchange.",
		},
	)
	notificationsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clixon",
			Subsystem: "session",
			Name:      "notifications_total",
			Help:      "Event notifications received on subscription streams.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(rpcRequests, rpcDuration, sessionsEstablished, notificationsReceived)
	})
}

func RecordRPC(op string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	rpcRequests.WithLabelValues(op, successLabel).Inc()
	rpcDuration.WithLabelValues(op, successLabel).Observe(duration.Seconds())
}

func RecordSessionEstablished() {
	RegisterMetrics()
	sessionsEstablished.Inc()
}

func RecordNotification() {
	RegisterMetrics()
	notificationsReceived.Inc()
}
