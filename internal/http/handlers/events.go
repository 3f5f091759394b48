package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/taskboard/internal/cache"
	"github.com/dropDatabas3/taskboard/internal/events"
	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/http/helpers"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
	"github.com/dropDatabas3/taskboard/internal/store/core"
)

// statsCacheTTL evita martillar el store con COUNT(*) por cada GET de
// stats; el conteo puede quedar unos segundos viejo sin drama.
const statsCacheTTL = 10 * time.Second

// EventHandler expone el event log de analytics: ingesta + conteos.
type EventHandler struct {
	Recorder *events.Recorder
	Cache    cache.Client
}

// LogEvent recibe un evento y lo persiste. 202: se acepta el registro,
// el caller no espera nada más.
func (h *EventHandler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var e core.Event
	if !helpers.ReadJSON(w, r, &e) {
		return
	}

	id, err := h.Recorder.Record(r.Context(), &e)
	if err != nil {
		if err == core.ErrEventTypeRequired {
			apperrors.WriteError(w, apperrors.ErrValidation.WithDetail(err.Error()))
			return
		}
		logger.From(r.Context()).Error("event insert failed", logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrStoreFailure.WithCause(err))
		return
	}

	helpers.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Event logged successfully",
		"id":      id,
	})
}

// TaskCompletionStats devuelve los conteos simples, cacheados unos
// segundos.
func (h *EventHandler) TaskCompletionStats(w http.ResponseWriter, r *http.Request) {
	const key = "stats:task-completion"

	if h.Cache != nil {
		if raw, err := h.Cache.Get(r.Context(), key); err == nil {
			var stats core.CompletionStats
			if json.Unmarshal([]byte(raw), &stats) == nil {
				helpers.WriteJSON(w, http.StatusOK, stats)
				return
			}
		}
	}

	stats, err := h.Recorder.Stats(r.Context())
	if err != nil {
		apperrors.WriteError(w, apperrors.ErrStoreFailure.WithCause(err))
		return
	}

	if h.Cache != nil {
		if b, err := json.Marshal(stats); err == nil {
			_ = h.Cache.Set(r.Context(), key, string(b), statsCacheTTL)
		}
	}

	helpers.WriteJSON(w, http.StatusOK, stats)
}
