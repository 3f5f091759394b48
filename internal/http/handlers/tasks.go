package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/taskboard/internal/events"
	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/http/helpers"
	"github.com/dropDatabas3/taskboard/internal/http/middlewares"
	"github.com/dropDatabas3/taskboard/internal/notify"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
	"github.com/dropDatabas3/taskboard/internal/store/core"
)

// TaskHandler expone el CRUD de tareas. Identity y permisos ya vienen
// resueltos por los middlewares; acá sólo queda validación + store.
type TaskHandler struct {
	Store    core.TaskStore
	Events   *events.Recorder
	Notifier *notify.Dispatcher
}

// Create exige rol (project_manager o app_admin por default); el chequeo
// corre en el chain, acá sólo queda el payload.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middlewares.GetIdentity(r.Context())

	// El decode tolerante ignora campos desconocidos: un reporter_id en el
	// payload se descarta, el server siempre usa el subject del token.
	var in core.TaskCreate
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		apperrors.WriteError(w, apperrors.ErrValidation.WithDetail(err.Error()))
		return
	}

	task, err := h.Store.Create(r.Context(), in, identity.Subject)
	if err != nil {
		apperrors.WriteError(w, storeError(err))
		return
	}

	logger.From(r.Context()).Info("task created",
		logger.TaskID(task.ID), logger.Subject(identity.Subject))

	h.Events.Emit(r.Context(), core.EventTaskCreated, identity.Subject,
		map[string]any{"task_id": task.ID})

	// Notificación al assignee si lo hay; best-effort, no frena el 201.
	if task.AssigneeID != "" && h.Notifier != nil {
		n := notify.Notification{
			Recipient: task.AssigneeID,
			Subject:   "Nueva tarea asignada: " + task.Title,
			Message:   "Se te asignó la tarea #" + strconv.FormatInt(task.ID, 10) + ".",
			Type:      notify.TypeInApp,
		}
		if err := n.Validate(); err == nil {
			if err := h.Notifier.Enqueue(n); err != nil {
				logger.From(r.Context()).Warn("assignee notification dropped", logger.Err(err))
			}
		}
	}

	helpers.WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	tasks, err := h.Store.List(r.Context(), skip, limit)
	if err != nil {
		apperrors.WriteError(w, storeError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.Store.Get(r.Context(), id)
	if err != nil {
		apperrors.WriteError(w, storeError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var patch core.TaskPatch
	if !helpers.ReadJSON(w, r, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		apperrors.WriteError(w, apperrors.ErrValidation.WithDetail(err.Error()))
		return
	}

	task, err := h.Store.Update(r.Context(), id, patch)
	if err != nil {
		apperrors.WriteError(w, storeError(err))
		return
	}

	if patch.Status != nil && *patch.Status == core.StatusDone {
		identity := middlewares.GetIdentity(r.Context())
		h.Events.Emit(r.Context(), core.EventTaskCompleted, identity.Subject,
			map[string]any{"task_id": task.ID})
	}

	helpers.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		apperrors.WriteError(w, storeError(err))
		return
	}

	identity := middlewares.GetIdentity(r.Context())
	h.Events.Emit(r.Context(), core.EventTaskDeleted, identity.Subject,
		map[string]any{"task_id": id})

	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apperrors.WriteError(w, apperrors.ErrInvalidParameter.WithDetail("id debe ser un entero positivo"))
		return 0, false
	}
	return id, true
}

func pageParams(w http.ResponseWriter, r *http.Request) (skip, limit int, ok bool) {
	skip, limit = 0, core.DefaultPageSize

	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			apperrors.WriteError(w, apperrors.ErrInvalidParameter.WithDetail("skip inválido"))
			return 0, 0, false
		}
		skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			apperrors.WriteError(w, apperrors.ErrInvalidParameter.WithDetail("limit inválido"))
			return 0, 0, false
		}
		limit = n
	}
	if limit > core.MaxPageSize {
		limit = core.MaxPageSize
	}
	return skip, limit, true
}

// storeError mapea errores del store al catálogo HTTP.
func storeError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return apperrors.ErrTaskNotFound
	default:
		return apperrors.ErrStoreFailure.WithCause(err)
	}
}
