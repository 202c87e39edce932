// Package metrics exposes the assistant's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts handled messages by resolved intent.
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankbot_messages_total",
			Help: "The total number of handled chat messages, labeled by intent",
		},
		[]string{"intent"},
	)

	// Fallbacks counts messages no rule or classifier could resolve.
	Fallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bankbot_fallbacks_total",
			Help: "The total number of messages that fell through to the generic fallback",
		},
	)

	// IntentConfidence observes the confidence of each resolved message.
	IntentConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bankbot_intent_confidence",
			Help:    "The confidence of resolved intents per handled message",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// Retrains counts classifier retrain attempts by outcome.
	Retrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankbot_classifier_retrains_total",
			Help: "The total number of classifier retrain attempts, labeled by outcome",
		},
		[]string{"outcome"},
	)

	// Transfers counts finalized transfer attempts by outcome.
	Transfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankbot_transfers_total",
			Help: "The total number of finalized fund transfers, labeled by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordMessage updates the per-message series for one engine result.
func RecordMessage(intent string, confidence float64) {
	MessagesHandled.WithLabelValues(intent).Inc()
	IntentConfidence.Observe(confidence)
	if intent == "fallback" {
		Fallbacks.Inc()
	}
}
