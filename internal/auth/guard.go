package auth

// Operation nombra cada operación custodiada de la API de tareas.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"

	OpLogEvent Operation = "log_event"
	OpStats    Operation = "stats"
	OpNotify   Operation = "notify"
)

// Roles con permiso de creación por default.
const (
	RoleProjectManager = "project_manager"
	RoleAppAdmin       = "app_admin"
)

// Policy es la tabla declarativa operación → roles requeridos.
// Set vacío o ausente = basta una identidad válida. La tabla es data,
// no condicionales inline: agregar operaciones o roles no toca la API.
type Policy map[Operation][]string

// DefaultPolicy replica el contrato de referencia: sólo create exige rol;
// las lecturas y mutaciones por id requieren identidad, nada más.
// Update/delete quedan como punto de extensión configurable.
func DefaultPolicy() Policy {
	return Policy{
		OpCreate: {RoleProjectManager, RoleAppAdmin},
	}
}

// PolicyFromConfig arma la tabla desde config (op string → roles).
// Claves desconocidas se ignoran; nil devuelve la default.
func PolicyFromConfig(m map[string][]string) Policy {
	if m == nil {
		return DefaultPolicy()
	}
	p := make(Policy, len(m))
	for op, roles := range m {
		switch o := Operation(op); o {
		case OpList, OpGet, OpCreate, OpUpdate, OpDelete, OpLogEvent, OpStats, OpNotify:
			p[o] = roles
		}
	}
	return p
}

// Guard decide allow/deny para una identidad y una operación.
// Es un cómputo puro en memoria: sin I/O, sin bloqueo.
type Guard struct {
	policy Policy
}

func NewGuard(policy Policy) *Guard {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Guard{policy: policy}
}

// Authorize reporta si la identidad puede ejecutar la operación.
// Identidad nil siempre deniega (eso es 401, no 403; el caller decide).
func (g *Guard) Authorize(id *Identity, op Operation) bool {
	if id == nil {
		return false
	}
	required := g.policy[op]
	if len(required) == 0 {
		return true
	}
	return id.HasAnyRole(required...)
}

// Required expone los roles exigidos para una operación (para logs).
func (g *Guard) Required(op Operation) []string {
	return g.policy[op]
}
