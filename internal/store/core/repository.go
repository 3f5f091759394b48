package core

import "context"

// Paginación por defecto y tope duro para List.
const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// TaskStore es el colaborador externo de persistencia de tareas.
// Toda operación es atómica respecto de un único registro; no se requieren
// transacciones multi-registro. Los errores de transporte/almacenamiento
// son distintos de ErrNotFound.
type TaskStore interface {
	// Create persiste la tarea y devuelve el registro con id y timestamps
	// asignados por el store. reporterID viene de la identidad autenticada.
	Create(ctx context.Context, in TaskCreate, reporterID string) (*Task, error)

	// Get devuelve la tarea o ErrNotFound.
	Get(ctx context.Context, id int64) (*Task, error)

	// List devuelve una página ordenada por id ascendente.
	List(ctx context.Context, skip, limit int) ([]Task, error)

	// Update aplica un merge-patch y devuelve la tarea actualizada,
	// o ErrNotFound si el id no existe.
	Update(ctx context.Context, id int64, patch TaskPatch) (*Task, error)

	// Delete elimina el registro o devuelve ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// EventStore es el colaborador externo del event log de analytics.
type EventStore interface {
	// Insert persiste un evento (append-only).
	Insert(ctx context.Context, e *Event) error

	// CountAll cuenta todos los eventos registrados.
	CountAll(ctx context.Context) (int64, error)

	// CountByType cuenta eventos de un tipo dado.
	CountByType(ctx context.Context, eventType string) (int64, error)
}

// Pinger lo implementan los stores con conexión real (readiness check).
type Pinger interface {
	Ping(ctx context.Context) error
}
