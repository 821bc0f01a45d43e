package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth core.
type Metrics struct {
	LoginSuccess     prometheus.Counter
	LoginFailures    *prometheus.CounterVec
	AccountsLocked   prometheus.Counter
	IPsBlocked       prometheus.Counter
	SignupsThrottled prometheus.Counter
	TokensIssued     prometheus.Counter
	TokensRevoked    prometheus.Counter
	EndpointLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		LoginSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_login_success_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inkgate_login_failures_total",
			Help: "Total number of failed login attempts by reason",
		}, []string{"reason"}),
		AccountsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_accounts_locked_total",
			Help: "Total number of account lock events",
		}),
		IPsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_ips_blocked_total",
			Help: "Total number of IP block events",
		}),
		SignupsThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_signups_throttled_total",
			Help: "Total number of account creations rejected by the per-IP cap",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_tokens_issued_total",
			Help: "Total number of credentials issued (access and refresh)",
		}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inkgate_tokens_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
