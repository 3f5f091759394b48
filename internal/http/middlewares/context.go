package middlewares

import (
	"context"

	"github.com/dropDatabas3/taskboard/internal/auth"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIdentity
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID extrae el request id del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithIdentity inyecta la identidad autenticada en el contexto.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// GetIdentity extrae la identidad autenticada (nil si no hay).
func GetIdentity(ctx context.Context) *auth.Identity {
	if v, ok := ctx.Value(ctxKeyIdentity).(*auth.Identity); ok {
		return v
	}
	return nil
}
