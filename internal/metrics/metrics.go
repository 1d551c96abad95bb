// Package metrics holds the Prometheus collectors shared by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal counts handled view actions by action name and outcome
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghexplorer",
		Subsystem: "view",
		Name:      "actions_total",
		Help:      "Total view actions handled, by action and outcome.",
	}, []string{"action", "outcome"})

	ActionDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ghexplorer",
		Subsystem: "view",
		Name:      "action_duration_seconds",
		Help:      "View action duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	LoadingSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghexplorer",
		Subsystem: "loading",
		Name:      "sessions_active",
		Help:      "Number of running loading animations.",
	})

	LoadingSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghexplorer",
		Subsystem: "loading",
		Name:      "sessions_total",
		Help:      "Total loading animations, by terminal status.",
	}, []string{"status"})

	MessageEditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghexplorer",
		Subsystem: "telegram",
		Name:      "message_edits_total",
		Help:      "Total message edits, by result.",
	}, []string{"result"})

	GitHubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghexplorer",
		Subsystem: "github",
		Name:      "requests_total",
		Help:      "Total GitHub API requests, by status.",
	}, []string{"status"})

	GitHubRequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ghexplorer",
		Subsystem: "github",
		Name:      "request_duration_seconds",
		Help:      "GitHub API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
