// Package instrumentation exposes the service's Prometheus metrics.
package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransferOps counts completed ledger operations by action type.
	TransferOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neocertify_transfer_operations_total",
		Help: "Completed ownership-transfer operations by action type.",
	}, []string{"action"})

	// TransferUnits counts units moved by completed operations.
	TransferUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neocertify_transfer_units_total",
		Help: "Units moved by completed ownership-transfer operations.",
	}, []string{"action"})

	// RateLimitRejections counts requests rejected by rate limiting, by
	// endpoint class.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neocertify_rate_limit_rejections_total",
		Help: "Requests rejected by rate limiting, by endpoint class.",
	}, []string{"class"})

	// VerificationRequests counts public verification lookups by outcome.
	VerificationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neocertify_verification_requests_total",
		Help: "Public code verification requests by outcome.",
	}, []string{"outcome"})
)
