package handlers

import (
	"net/http"

	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/http/helpers"
	"github.com/dropDatabas3/taskboard/internal/store/core"
)

// HealthHandler expone liveness y readiness.
type HealthHandler struct {
	// Pinger es opcional: el store en memoria no tiene conexión que chequear.
	Pinger core.Pinger
}

// Healthz sólo confirma que el proceso responde.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz confirma además la conexión al store.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.Pinger != nil {
		if err := h.Pinger.Ping(r.Context()); err != nil {
			apperrors.WriteError(w, apperrors.ErrServiceUnavailable.WithDetail("store unreachable"))
			return
		}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"database_status": "connected",
	})
}
