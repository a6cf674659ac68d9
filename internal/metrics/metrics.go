package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Purchase outcomes used as the "outcome" label.
const (
	OutcomeIssued        = "issued"
	OutcomeAlreadyOwned  = "already_owned"
	OutcomeDeclined      = "declined"
	OutcomeInvalid       = "invalid"
	OutcomeEventNotFound = "event_not_found"
	OutcomeStorageFailed = "storage_failed"
)

var (
	Purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventease_purchases_total",
			Help: "Ticket purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	PurchaseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventease_purchase_duration_seconds",
			Help:    "Time spent issuing a ticket, QR rendering included",
			Buckets: prometheus.DefBuckets,
		},
	)

	QRRenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventease_qr_render_failures_total",
			Help: "QR image failures by stage (encode or store)",
		},
		[]string{"stage"},
	)

	QRPendingTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventease_qr_pending_tickets",
			Help: "Tickets whose QR image still has to be rendered",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventease_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

func TrackPurchase(outcome string, started time.Time) {
	Purchases.WithLabelValues(outcome).Inc()
	PurchaseDuration.Observe(time.Since(started).Seconds())
}
