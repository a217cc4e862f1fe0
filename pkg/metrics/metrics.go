package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "companion", Name: "auth_operations_total", Help: "Session manager operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	SubscriptionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "companion", Name: "subscription_refreshes_total", Help: "Subscription status refreshes by outcome (ok, error, noise, skipped)."},
		[]string{"outcome"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "companion", Name: "notifications_total", Help: "Notification dispatch attempts by category and outcome (sent, suppressed, failed)."},
		[]string{"category", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "companion", Name: "rate_limit_allowed_total", Help: "Number of allowed bridge requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "companion", Name: "rate_limit_rejected_total", Help: "Number of rejected bridge requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthOperations)
	reg.MustRegister(SubscriptionRefreshes)
	reg.MustRegister(Notifications)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
