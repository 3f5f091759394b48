// Package auth implementa el core de autenticación y autorización:
// resolución de claves de firma (JWKS), verificación de bearer tokens
// RS256 y chequeo de roles por operación.
//
// No emite tokens ni registra usuarios: los tokens vienen de un IdP
// externo (Keycloak) y acá sólo se verifican.
package auth

import (
	"errors"
	"strings"
)

// Identity es el resultado de una verificación exitosa.
// Subject y Username son obligatorios: si faltan, la verificación
// falla entera, nunca hay identidad parcial.
type Identity struct {
	Subject  string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasAnyRole reporta si la identidad tiene al menos uno de los roles.
// Comparación case-insensitive, como el resto del sistema de roles.
func (id *Identity) HasAnyRole(roles ...string) bool {
	if id == nil || len(id.Roles) == 0 || len(roles) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(id.Roles))
	for _, r := range id.Roles {
		set[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	for _, want := range roles {
		if _, ok := set[strings.ToLower(strings.TrimSpace(want))]; ok {
			return true
		}
	}
	return false
}

// Errores del core de auth. Dos niveles a propósito (ver spec de la API):
// un IdP caído (ErrAuthUnavailable) no se arregla reenviando el token;
// un token vencido (ErrUnauthenticated) sí.
var (
	// ErrUnauthenticated cubre uniformemente firma inválida, token vencido,
	// malformado, algoritmo no permitido o claims requeridas ausentes.
	ErrUnauthenticated = errors.New("auth: invalid credentials")

	// ErrAuthUnavailable indica que el set de claves de firma no pudo
	// resolverse (IdP inaccesible, respuesta malformada, sin clave RSA).
	ErrAuthUnavailable = errors.New("auth: authentication service unavailable")
)
