package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcome classes. These mirror the engine's outcome taxonomy:
// business rejections are not failures, and fatal guard violations are
// counted separately from both.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeFatal    = "fatal"
)

var (
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdeck_operations_total",
		Help: "Engine operations by operation name and outcome class.",
	}, []string{"op", "outcome"})

	BookingRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdeck_booking_retries_total",
		Help: "Booking transactions retried after a serialization failure.",
	})

	DanglingTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdeck_dangling_transactions_total",
		Help: "Operations that returned with a transaction still open.",
	})
)
