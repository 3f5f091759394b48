package handlers

import (
	"net/http"

	apperrors "github.com/dropDatabas3/taskboard/internal/http/errors"
	"github.com/dropDatabas3/taskboard/internal/http/helpers"
	"github.com/dropDatabas3/taskboard/internal/http/middlewares"
)

// Me devuelve las claims de la identidad autenticada (debugging).
func Me(w http.ResponseWriter, r *http.Request) {
	identity := middlewares.GetIdentity(r.Context())
	if identity == nil {
		apperrors.WriteError(w, apperrors.ErrTokenMissing)
		return
	}

	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       identity.Subject,
		"username": identity.Username,
		"roles":    roles,
	})
}
