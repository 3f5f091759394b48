package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del servicio. Paquete standalone para evitar
// import cycles entre HTTP, auth y notify.

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_http_requests_total",
		Help: "Requests HTTP por método, ruta y status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskboard_http_request_duration_ms",
		Help:    "Duración de requests HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"route"})

	AuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_auth_failures_total",
		Help: "Fallos de autenticación/autorización por motivo",
	}, []string{"reason"}) // unauthenticated | unavailable | forbidden

	JWKSFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_jwks_fetches_total",
		Help: "Fetches al endpoint JWKS del IdP por resultado",
	}, []string{"outcome"}) // ok | error

	EventsLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskboard_events_logged_total",
		Help: "Eventos de analytics persistidos",
	})

	NotifyQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "taskboard_notify_queue_depth",
		Help: "Notificaciones encoladas pendientes de envío",
	})

	NotifyDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_notify_deliveries_total",
		Help: "Intentos de entrega de notificaciones por resultado",
	}, []string{"outcome"}) // sent | retried | failed
)

// Register registra todas las métricas en el registry dado (o el default
// si es nil). Tolera AlreadyRegisteredError para tests que re-registran.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthFailuresTotal,
		JWKSFetchesTotal,
		EventsLoggedTotal,
		NotifyQueueDepth,
		NotifyDeliveriesTotal,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
