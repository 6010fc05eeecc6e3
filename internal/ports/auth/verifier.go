package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
// El core nunca parsea tokens; solo consume Claims.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
