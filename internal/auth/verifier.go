package auth

import (
	"context"
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Verifier valida bearer tokens contra las claves del KeyResolver.
//
// Sólo RS256: cualquier otro algoritmo en el header se rechaza. La
// validación de audience está deshabilitada a propósito (relajación
// conocida y documentada del contrato, no un bug a arreglar en silencio):
// jwtv5 no valida "aud" salvo que se pida con WithAudience.
type Verifier struct {
	resolver *KeyResolver
	parser   *jwtv5.Parser
}

func NewVerifier(resolver *KeyResolver) *Verifier {
	return &Verifier{
		resolver: resolver,
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods([]string{jwtv5.SigningMethodRS256.Alg()}),
		),
	}
}

// Verify valida firma y claims, y produce la identidad autenticada.
//
// Dos outcomes de fallo, nada más:
//   - ErrAuthUnavailable si el JWKS no pudo resolverse;
//   - ErrUnauthenticated para todo lo demás (firma, expiry, malformado,
//     claims requeridas ausentes), uniforme sin importar la sub-causa.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.resolver.KeyFor(ctx, kid)
	}

	tok, err := v.parser.Parse(raw, keyfunc)
	if err != nil {
		// El fallo del resolver atraviesa el wrapping de jwtv5.
		if errors.Is(err, ErrAuthUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !tok.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["preferred_username"].(string)
	if sub == "" || username == "" {
		// Identidad incompleta = fallo, nunca éxito parcial.
		return nil, fmt.Errorf("%w: missing sub or preferred_username", ErrUnauthenticated)
	}

	return &Identity{
		Subject:  sub,
		Username: username,
		Roles:    realmRoles(claims),
	}, nil
}

// realmRoles extrae realm_access.roles (anidado, posiblemente ausente).
// Ausente o malformado ⇒ set vacío, no error: roles vacíos siguen siendo
// una identidad válida, sólo que sin permisos de escritura.
func realmRoles(claims jwtv5.MapClaims) []string {
	ra, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := ra["roles"].([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && s != "" {
			roles = append(roles, s)
		}
	}
	return roles
}
