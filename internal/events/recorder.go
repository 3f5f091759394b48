// Package events registra eventos de analytics a partir de las
// mutaciones de tareas. Best-effort: un fallo del event log nunca
// voltea la operación que lo originó.
package events

import (
	"context"
	"time"

	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
	"github.com/dropDatabas3/taskboard/internal/store/core"
)

type Recorder struct {
	store   core.EventStore
	timeout time.Duration
}

func NewRecorder(store core.EventStore) *Recorder {
	return &Recorder{store: store, timeout: 3 * time.Second}
}

// Record persiste un evento y devuelve su id asignado.
func (r *Recorder) Record(ctx context.Context, e *core.Event) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if err := r.store.Insert(ctx, e); err != nil {
		return "", err
	}
	metrics.EventsLoggedTotal.Inc()
	return e.ID, nil
}

// Emit registra un evento derivado de una mutación de tarea, sin
// propagar el error: el request ya terminó bien, acá sólo se loguea.
func (r *Recorder) Emit(ctx context.Context, eventType, userID string, details map[string]any) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	e := &core.Event{EventType: eventType, UserID: userID, Details: details}
	if _, err := r.Record(cctx, e); err != nil {
		logger.From(ctx).Warn("event emit failed",
			logger.EventType(eventType), logger.Err(err))
	}
}

// Stats arma el conteo simple de completitud de tareas.
func (r *Recorder) Stats(ctx context.Context) (core.CompletionStats, error) {
	total, err := r.store.CountAll(ctx)
	if err != nil {
		return core.CompletionStats{}, err
	}
	done, err := r.store.CountByType(ctx, core.EventTaskCompleted)
	if err != nil {
		return core.CompletionStats{}, err
	}
	return core.CompletionStats{TotalEventsLogged: total, CompletedTasksCount: done}, nil
}
