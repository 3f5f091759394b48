// Package http arma el router del servicio: rutas, middlewares y handlers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/taskboard/internal/auth"
	"github.com/dropDatabas3/taskboard/internal/cache"
	"github.com/dropDatabas3/taskboard/internal/events"
	"github.com/dropDatabas3/taskboard/internal/http/handlers"
	mw "github.com/dropDatabas3/taskboard/internal/http/middlewares"
	"github.com/dropDatabas3/taskboard/internal/notify"
	"github.com/dropDatabas3/taskboard/internal/rate"
	"github.com/dropDatabas3/taskboard/internal/store/core"
)

// RouterDeps contiene las dependencias para armar el router principal.
type RouterDeps struct {
	Tasks    core.TaskStore
	Events   *events.Recorder
	Verifier *auth.Verifier
	Guard    *auth.Guard
	Notifier *notify.Dispatcher
	Cache    cache.Client
	Limiter  rate.Limiter // Opcional: nil desactiva rate limiting
	Pinger   core.Pinger  // Opcional: nil hace readyz trivial
}

// NewRouter registra todas las rutas del servicio y devuelve el handler raíz.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	tasks := &handlers.TaskHandler{Store: deps.Tasks, Events: deps.Events, Notifier: deps.Notifier}
	evts := &handlers.EventHandler{Recorder: deps.Events, Cache: deps.Cache}
	notif := &handlers.NotificationHandler{Dispatcher: deps.Notifier}
	health := &handlers.HealthHandler{Pinger: deps.Pinger}

	// Chain base: recover primero, logging al final para capturar el status real.
	base := func(h http.Handler) http.Handler {
		return mw.Chain(h,
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithLogging(),
		)
	}

	// Chain autenticado: todo lo que toca recursos pasa por el verifier.
	authed := func(op auth.Operation, h http.HandlerFunc) http.Handler {
		chain := []mw.Middleware{
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithLogging(),
			mw.RequireAuth(deps.Verifier),
		}
		if deps.Limiter != nil {
			chain = append(chain, mw.WithRateLimit(deps.Limiter))
		}
		chain = append(chain, mw.RequireOperation(deps.Guard, op))
		return mw.Chain(h, chain...)
	}

	// ─── Tareas ───
	r.Method(http.MethodGet, "/tasks", authed(auth.OpList, tasks.List))
	r.Method(http.MethodPost, "/tasks", authed(auth.OpCreate, tasks.Create))
	r.Method(http.MethodGet, "/tasks/{id}", authed(auth.OpGet, tasks.Get))
	r.Method(http.MethodPut, "/tasks/{id}", authed(auth.OpUpdate, tasks.Update))
	r.Method(http.MethodDelete, "/tasks/{id}", authed(auth.OpDelete, tasks.Delete))

	// ─── Usuario autenticado ───
	r.Method(http.MethodGet, "/users/me", authed(auth.OpGet, http.HandlerFunc(handlers.Me)))

	// ─── Analytics ───
	r.Method(http.MethodPost, "/log-event", authed(auth.OpLogEvent, evts.LogEvent))
	r.Method(http.MethodGet, "/stats/task-completion", authed(auth.OpStats, evts.TaskCompletionStats))

	// ─── Notificaciones ───
	r.Method(http.MethodPost, "/send-notification", authed(auth.OpNotify, notif.Send))

	// ─── Infra (sin auth) ───
	r.Method(http.MethodGet, "/healthz", base(http.HandlerFunc(health.Healthz)))
	r.Method(http.MethodGet, "/readyz", base(http.HandlerFunc(health.Readyz)))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
