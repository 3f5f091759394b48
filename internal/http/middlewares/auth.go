package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/taskboard/internal/auth"
	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
)

// RequireAuth valida Authorization: Bearer <JWT> y guarda la identidad en
// el contexto. Corta el pipeline antes de cualquier acceso al store:
//   - sin token o token inválido → 401
//   - JWKS irresoluble (IdP caído) → 503, distinto a propósito
func RequireAuth(verifier *auth.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				apperrors.WriteError(w, apperrors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			identity, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if errors.Is(err, auth.ErrAuthUnavailable) {
					metrics.AuthFailuresTotal.WithLabelValues("unavailable").Inc()
					logger.From(r.Context()).Error("auth service unavailable", logger.Err(err))
					apperrors.WriteError(w, apperrors.ErrAuthServiceUnavailable)
					return
				}
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				// La sub-causa queda en el log, no en la respuesta.
				logger.From(r.Context()).Info("token rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				apperrors.WriteError(w, apperrors.ErrInvalidCredentials)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
