package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicateEmail     = "duplicate_email"
	OutcomeError              = "error"
	OutcomeNoSnapshot         = "no_snapshot"
	OutcomeInvalid            = "invalid"
	OutcomeRemoteError        = "remote_error"
)

// Metrics counts session lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Restores      *prometheus.CounterVec
	Logouts       *prometheus.CounterVec
}

// NewMetrics registers the session counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogkeeper",
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogkeeper",
			Subsystem: "session",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Restores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogkeeper",
			Subsystem: "session",
			Name:      "restores_total",
			Help:      "Startup session restores by outcome.",
		}, []string{"outcome"}),
		Logouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogkeeper",
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Logouts by outcome of the remote stamp.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) register(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) restore(outcome string) {
	if m != nil {
		m.Restores.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) logout(outcome string) {
	if m != nil {
		m.Logouts.WithLabelValues(outcome).Inc()
	}
}
