package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsTracked counts on-chain transactions submitted for tracking
	TransactionsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_transactions_tracked_total",
			Help: "Total number of transactions submitted for broker tracking",
		},
		[]string{"action"},
	)

	// TransactionsFinalized counts terminal broker callbacks by outcome
	TransactionsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_transactions_finalized_total",
			Help: "Total number of transaction log finalizations",
		},
		[]string{"action", "scenario"},
	)

	// PendingTransactions tracks transaction log rows with no terminal timestamp
	PendingTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconciler_pending_transactions",
			Help: "Number of transaction log rows still awaiting a terminal event",
		},
	)

	// CacheInvalidations counts cache entries invalidated after reconciliation
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_cache_invalidations_total",
			Help: "Total number of cache invalidations by target",
		},
		[]string{"target"},
	)

	// BrokerMessages counts broker messages by action and consumption outcome
	BrokerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_broker_messages_total",
			Help: "Total number of broker messages consumed",
		},
		[]string{"action", "outcome"},
	)

	// MembershipChanges counts membership mutations by kind
	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_membership_changes_total",
			Help: "Total number of membership rows added, removed or updated",
		},
		[]string{"kind"},
	)

	// ClassifierRuleHits counts which classification rule matched
	ClassifierRuleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_classifier_rule_hits_total",
			Help: "Total number of transactions classified per rule",
		},
		[]string{"rule"},
	)

	// ClassifierRulePanics counts rules aborted on malformed input
	ClassifierRulePanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_classifier_rule_panics_total",
			Help: "Total number of classification rules aborted on malformed input",
		},
		[]string{"rule"},
	)

	// ErrorsTotal counts errors by component
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
