// Package metrics holds the Prometheus collectors for review sync and the
// review store's HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeOffline  = "offline"
	OutcomeStale    = "stale"
)

// Write outcomes.
const (
	WriteRemote    = "remote"
	WriteLocalOnly = "local_only"
)

var (
	// FetchTotal counts remote list attempts by outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewsync_fetch_total",
			Help: "Total number of review list attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FallbackReads counts reads served from the local cache.
	FallbackReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewsync_fallback_reads_total",
			Help: "Total number of review reads served from the local cache",
		},
	)

	// RetriesScheduled counts automatic retries by attempt number.
	RetriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewsync_retries_scheduled_total",
			Help: "Total number of automatic review list retries scheduled",
		},
		[]string{"attempt"},
	)

	// RetriesExhausted counts degradation episodes that hit the retry cap.
	RetriesExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewsync_retries_exhausted_total",
			Help: "Total number of times automatic retries were exhausted",
		},
	)

	// WritesTotal counts submitted reviews by where they ended up.
	WritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewsync_writes_total",
			Help: "Total number of submitted reviews by outcome",
		},
		[]string{"outcome"},
	)

	// CacheErrors counts swallowed local cache failures by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewsync_cache_errors_total",
			Help: "Total number of local cache read/write failures",
		},
		[]string{"op"},
	)

	// ConnectivityChanges counts observed online/offline transitions.
	ConnectivityChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewsync_connectivity_changes_total",
			Help: "Total number of connectivity transitions by new state",
		},
		[]string{"state"},
	)
)
