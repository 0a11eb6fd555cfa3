package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationAttempts records registration requests by result
	// (accepted|rejected|delivery_failed|error).
	RegistrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asm_registration_attempts_total",
			Help: "Total number of account registration attempts",
		},
		[]string{"result"},
	)

	// VerificationAttempts records code redemptions by result
	// (provisioned|invalid|expired|provision_failed|error).
	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asm_verification_attempts_total",
			Help: "Total number of verification code redemptions",
		},
		[]string{"result"},
	)

	// EmailsSent counts verification emails handed to the SMTP relay.
	EmailsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asm_verification_emails_sent_total",
			Help: "Total number of verification emails sent",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asm_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
