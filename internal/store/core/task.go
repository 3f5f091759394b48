package core

import (
	"strings"
	"time"
)

// Status de una tarea. Chico y cerrado a propósito.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reporta si el status pertenece al conjunto soportado.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TitleMaxLen acota el título (mismo límite que la columna).
const TitleMaxLen = 100

// Task es la entidad de dominio custodiada por el core de auth.
// ReporterID siempre sale del subject autenticado en la creación;
// nunca se acepta como input del cliente.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	ReporterID  string    `json:"reporter_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskCreate son los campos aceptados al crear una tarea.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	AssigneeID  string `json:"assignee_id"`
}

// Validate normaliza y chequea el input de creación.
// Status vacío defaultea a "todo".
func (in *TaskCreate) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if len(in.Title) > TitleMaxLen {
		return ErrTitleTooLong
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// TaskPatch es un merge-patch: sólo los campos presentes (punteros no nil)
// se aplican; el resto queda intacto.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *Status `json:"status"`
	AssigneeID  *string `json:"assignee_id"`
}

// Validate chequea los campos presentes del patch.
func (p *TaskPatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return ErrTitleRequired
		}
		if len(t) > TitleMaxLen {
			return ErrTitleTooLong
		}
		p.Title = &t
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Empty reporta si el patch no trae ningún campo.
func (p *TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.AssigneeID == nil
}

// Apply aplica el patch sobre una copia de t y refresca UpdatedAt.
func (p *TaskPatch) Apply(t Task, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}
	t.UpdatedAt = now
	return t
}
