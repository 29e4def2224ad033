package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service-level counters, registered on the default registry and exposed by
// the /metrics server.
var (
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrlink",
		Name:      "redirects_total",
		Help:      "Short-link resolutions by outcome.",
	}, []string{"result"})

	ClicksStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrlink",
		Name:      "clicks_stored_total",
		Help:      "Click events durably recorded, by persistence path.",
	}, []string{"path"})

	QRRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrlink",
		Name:      "qr_renders_total",
		Help:      "QR images rendered, by output format.",
	}, []string{"format"})

	SessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qrlink",
		Name:      "sessions_swept_total",
		Help:      "Expired or deactivated sessions removed by the sweeper.",
	})

	ClicksPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qrlink",
		Name:      "clicks_purged_total",
		Help:      "Click events removed by the retention job.",
	})
)

// Outcome labels for RedirectsTotal.
const (
	ResultResolved       = "resolved"
	ResultNotFound       = "not_found"
	ResultExpired        = "expired"
	ResultLimitReached   = "limit_reached"
	ResultPasswordDenied = "password_denied"
	ResultError          = "error"
)
