package core

import (
	"strings"
	"time"
)

// Tipos de evento conocidos. El event log acepta cualquier string;
// estos son los que el propio servicio emite.
const (
	EventTaskCreated   = "task_created"
	EventTaskCompleted = "task_completed"
	EventTaskDeleted   = "task_deleted"
)

// Event es un registro de analytics: un insert, nunca se muta.
type Event struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	UserID    string         `json:"user_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Validate chequea el mínimo indispensable: el tipo de evento.
func (e *Event) Validate() error {
	e.EventType = strings.TrimSpace(e.EventType)
	if e.EventType == "" {
		return ErrEventTypeRequired
	}
	return nil
}

// CompletionStats es el resultado del conteo simple de analytics.
type CompletionStats struct {
	TotalEventsLogged   int64 `json:"total_events_logged"`
	CompletedTasksCount int64 `json:"completed_tasks_count"`
}
