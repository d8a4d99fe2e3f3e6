// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// StoreOperations counts entity store calls by store name, operation and result.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentboard_store_operations_total",
		Help: "Total number of entity store operations",
	}, []string{"store", "op", "result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentboard_sessions_active",
		Help: "Number of cached user sessions",
	})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentboard_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentboard_events_dropped_total",
		Help: "Events dropped because a subscriber buffer was full",
	})
)
