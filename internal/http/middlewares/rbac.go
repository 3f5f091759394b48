package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/taskboard/internal/auth"
	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
)

// RequireOperation consulta la tabla de políticas del Guard para la
// operación dada. Debe usarse después de RequireAuth.
//
// 403 (identidad válida, rol insuficiente) y 401 (sin identidad) nunca
// se confunden: son outcomes distintos del contrato.
func RequireOperation(guard *auth.Guard, op auth.Operation) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				apperrors.WriteError(w, apperrors.ErrTokenMissing)
				return
			}

			if !guard.Authorize(identity, op) {
				metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
				logger.From(r.Context()).Info("operation denied",
					logger.Subject(identity.Subject),
					logger.Op(string(op)),
					logger.Any("required_roles", guard.Required(op)),
				)
				apperrors.WriteError(w, apperrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
