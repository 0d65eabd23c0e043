package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests by outcome.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	inFlight     atomic.Int64
}

func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
	}
}

// Snapshot returns the current counters for the metrics endpoint.
func (mc *MetricsCollector) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests":      mc.requestCount.Load(),
		"errors":        mc.errorCount.Load(),
		"client_errors": mc.clientErrors.Load(),
		"server_errors": mc.serverErrors.Load(),
		"in_flight":     mc.inFlight.Load(),
	}
}

// Middleware counts requests, in-flight requests and 4xx/5xx responses.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)
		mc.inFlight.Add(1)
		defer mc.inFlight.Add(-1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			mc.serverErrors.Add(1)
			mc.errorCount.Add(1)
		case rw.statusCode >= 400:
			mc.clientErrors.Add(1)
			mc.errorCount.Add(1)
		}
	})
}
