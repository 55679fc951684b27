package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkovka",
			Name:      "booking_commits_total",
			Help:      "Reservation commit attempts by outcome.",
		},
		[]string{"outcome"},
	)

	relocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkovka",
			Name:      "relocations_total",
			Help:      "Relocation incidents by terminal outcome.",
		},
		[]string{"outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkovka",
			Name:      "notifications_total",
			Help:      "Notifications by emission outcome.",
		},
		[]string{"outcome"},
	)

	finesCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkovka",
			Name:      "fines_collected_total",
			Help:      "Acknowledged fine payments.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(commits, relocations, notifications, finesCollected)
	})
}

// IncCommit counts a reservation commit attempt outcome
// (committed, conflict, capacity, error).
func IncCommit(outcome string) {
	commits.WithLabelValues(outcome).Inc()
}

// IncRelocation counts a relocation outcome (offered, relocated,
// compensated, blocked).
func IncRelocation(outcome string) {
	relocations.WithLabelValues(outcome).Inc()
}

// IncNotification counts a notification outcome (emitted, suppressed).
func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

// IncFineCollected counts one acknowledged fine payment.
func IncFineCollected() {
	finesCollected.Inc()
}
