package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metahub_membership_transitions_total",
		Help: "Membership transitions by operation and outcome.",
	}, []string{"op", "outcome"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metahub_notifications_total",
		Help: "Outbox notification deliveries by kind and outcome.",
	}, []string{"kind", "outcome"})
)

const (
	OutcomeOK       = "ok"
	OutcomeDenied   = "denied"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

func Transition(op, outcome string) {
	transitions.WithLabelValues(op, outcome).Inc()
}

func Notification(kind, outcome string) {
	notifications.WithLabelValues(kind, outcome).Inc()
}
