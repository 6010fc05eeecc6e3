package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	HeaderDebugUserID = "X-Debug-User-ID"
	HeaderDebugRoles  = "X-Debug-Roles"
)

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Roles, CSV) => setea claims.
// - Si no hay claims, el request sigue igual; los services deciden 401/403.
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID)); uid != "" {
					claims := auth.Claims{
						Subject: uid,
						Roles:   splitRoles(r.Header.Get(HeaderDebugRoles)),
					}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if log != nil {
					log.Debug("token rejected", map[string]any{
						"path":  r.URL.Path,
						"error": err,
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// Caller devuelve los claims del request o nil (anónimo).
func Caller(ctx context.Context) *auth.Claims {
	c, ok := GetClaims(ctx)
	if !ok {
		return nil
	}
	return &c
}

func splitRoles(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
