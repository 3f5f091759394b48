package handlers

import (
	"net/http"

	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/http/helpers"
	"github.com/dropDatabas3/taskboard/internal/notify"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
)

// NotificationHandler acepta pedidos de notificación y los encola.
type NotificationHandler struct {
	Dispatcher *notify.Dispatcher
}

// Send responde 202 apenas la notificación entra a la cola: la entrega
// real corre en los workers, con reintentos.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var n notify.Notification
	if !helpers.ReadJSON(w, r, &n) {
		return
	}
	if err := n.Validate(); err != nil {
		apperrors.WriteError(w, apperrors.ErrValidation.WithDetail(err.Error()))
		return
	}

	if err := h.Dispatcher.Enqueue(n); err != nil {
		logger.From(r.Context()).Warn("notification enqueue failed", logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrServiceUnavailable.WithDetail("notification queue unavailable"))
		return
	}

	helpers.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Notification request accepted and scheduled for sending.",
		"id":      n.ID,
	})
}
