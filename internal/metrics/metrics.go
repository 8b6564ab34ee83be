package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCyclesTotal counts executed poll cycles by outcome.
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldwatcher_poll_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"state"}, // state: active, idle, store_error
	)

	// FeedErrorsTotal counts feed fetch failures by kind.
	FeedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldwatcher_feed_errors_total",
			Help: "Total number of price feed failures",
		},
		[]string{"kind"}, // kind: network, malformed, empty
	)

	// NotificationsTotal counts alert delivery attempts by outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldwatcher_notifications_total",
			Help: "Total number of alert notifications attempted",
		},
		[]string{"outcome"}, // outcome: sent, failed
	)

	// RulesClosedTotal counts rules retired after a delivered alert.
	RulesClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goldwatcher_rules_closed_total",
			Help: "Total number of watch rules closed after a delivered alert",
		},
	)

	// RuleCloseFailuresTotal counts close attempts that failed after a
	// delivered alert; each one risks a duplicate notification later.
	RuleCloseFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goldwatcher_rule_close_failures_total",
			Help: "Total number of failed rule closures following a delivered alert",
		},
	)
)
