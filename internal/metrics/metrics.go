package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"

	RateLimitAllowed  = "allowed"
	RateLimitDenied   = "denied"
	RateLimitFailOpen = "fail_open"
)

// Metrics groups the collectors the services report to.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	RateLimitChecks *prometheus.CounterVec
	Deletions       *prometheus.CounterVec
	Logins          *prometheus.CounterVec
}

// New builds the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedback",
			Name:      "submissions_total",
			Help:      "Feedback submissions by outcome.",
		}, []string{"outcome"}),
		RateLimitChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedback",
			Name:      "rate_limit_checks_total",
			Help:      "Per-email rate limit decisions.",
		}, []string{"decision"}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedback",
			Name:      "moderation_deletions_total",
			Help:      "Moderation deletes by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedback",
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Submissions, m.RateLimitChecks, m.Deletions, m.Logins)
	}
	return m
}

// Noop returns unregistered collectors.
func Noop() *Metrics {
	return New(nil)
}
