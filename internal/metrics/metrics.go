// Package metrics holds the prometheus collectors of the login and sync paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supplyconnect"

// Login results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// LoginAttempts counts login attempts by authentication source and result.
	LoginAttempts = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Number of login attempts, differentiated by authentication source and result.",
		},
		[]string{"source", "result"},
	)

	// DirectoryErrors counts directory failures by taxonomy class.
	DirectoryErrors = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_errors_total",
			Help:      "Number of failed directory operations, differentiated by error class.",
		},
		[]string{"class"},
	)

	// SyncRuns counts sync invocations by kind and final status.
	SyncRuns = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Number of directory sync runs, differentiated by kind and status.",
		},
		[]string{"kind", "status"},
	)

	// SyncObjects counts mirror rows written by sync, by kind and outcome (created, updated).
	SyncObjects = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_objects_total",
			Help:      "Number of mirror rows written by directory sync.",
		},
		[]string{"kind", "outcome"},
	)

	// SyncDuration observes the duration of sync runs in seconds.
	SyncDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of directory sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), //nolint:mnd
		},
		[]string{"kind"},
	)
)
