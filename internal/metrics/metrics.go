package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth service metrics
var (
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_auth_login_attempts_total",
			Help: "Sign-in and MFA verification attempts by outcome",
		},
		[]string{"result"},
	)

	TokenRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_auth_token_rejections_total",
			Help: "Bearer tokens refused by the validation filter",
		},
		[]string{"reason"},
	)

	TokensPurgedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_auth_tokens_purged_total",
			Help: "Expired rows removed by the maintenance sweep",
		},
		[]string{"store"},
	)

	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_auth_sessions_issued_total",
			Help: "Session tokens issued",
		},
	)
)

// Login outcomes
const (
	ResultSuccess     = "success"
	ResultMfaRequired = "mfa_required"
	ResultInvalid     = "invalid_credentials"
	ResultLocked      = "locked"
	ResultMfaInvalid  = "mfa_invalid"
	ResultError       = "error"
)
