package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the presence platform.
type Metrics struct {
	// Sessions created, by sandbox flag ("true"/"false")
	SessionsCreated *prometheus.CounterVec

	// Sessions explicitly ended by clients
	SessionsEnded prometheus.Counter

	// Heartbeats processed, by outcome ("ok", "not_found", "error")
	Heartbeats *prometheus.CounterVec

	// Activity events appended, by kind
	Activities *prometheus.CounterVec

	// Currently connected websocket dashboards
	GatewayClients prometheus.Gauge

	// Notification frames broadcast, by type
	Broadcasts *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all platform metrics on the given registerer. Tests pass
// a fresh registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venuepulse_sessions_created_total",
			Help: "Total sessions created, by sandbox flag",
		}, []string{"sandbox"}),

		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "venuepulse_sessions_ended_total",
			Help: "Total sessions explicitly ended by clients",
		}),

		Heartbeats: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venuepulse_heartbeats_total",
			Help: "Total heartbeats processed, by outcome",
		}, []string{"outcome"}),

		Activities: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venuepulse_activity_events_total",
			Help: "Total activity events appended, by kind",
		}, []string{"kind"}),

		GatewayClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "venuepulse_gateway_clients",
			Help: "Currently connected websocket dashboards",
		}),

		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venuepulse_broadcasts_total",
			Help: "Total notification frames broadcast, by type",
		}, []string{"type"}),
	}
}
