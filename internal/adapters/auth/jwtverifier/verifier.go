package jwtverifier

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-clinic-appointments/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("jwtverifier: secret or public key required")
	ErrMissingSub    = errors.New("jwtverifier: token has no subject")
)

// Config: Secret => HS256; PublicKeyPEM => RS256. Si vienen ambos gana la clave pública.
type Config struct {
	Secret       string
	PublicKeyPEM []byte
	Issuer       string
	Audience     string
	Leeway       time.Duration
}

// Verifier implementa auth.AuthVerifier validando el JWT localmente.
type Verifier struct {
	parser *jwt.Parser
	key    any
}

func New(cfg Config) (*Verifier, error) {
	var (
		key     any
		methods []string
	)
	switch {
	case len(cfg.PublicKeyPEM) > 0:
		pub, err := jwt.ParseRSAPublicKeyFromPEM(cfg.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("jwtverifier: parse public key: %w", err)
		}
		key = pub
		methods = []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodRS384.Alg(), jwt.SigningMethodRS512.Alg()}
	case strings.TrimSpace(cfg.Secret) != "":
		key = []byte(cfg.Secret)
		methods = []string{jwt.SigningMethodHS256.Alg()}
	default:
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}

	return &Verifier{parser: jwt.NewParser(opts...), key: key}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, errors.New("jwtverifier: empty token")
	}

	claims := jwt.MapClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		switch v.key.(type) {
		case *rsa.PublicKey:
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
		default:
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
		}
		return v.key, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwtverifier: %w", err)
	}
	if !parsed.Valid {
		return auth.Claims{}, errors.New("jwtverifier: invalid token")
	}

	sub, _ := claims.GetSubject()
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return auth.Claims{}, ErrMissingSub
	}

	return auth.Claims{
		Subject: sub,
		Email:   stringClaim(claims, "email"),
		Roles:   ExtractRoles(claims),
	}, nil
}

// ExtractRoles busca roles en este orden y usa la primera fuente no vacía:
// "roles", cualquier claim cuyo nombre contenga "role" (orden alfabético),
// "realm_access.roles" y por último "scope" separado por espacios.
func ExtractRoles(claims map[string]any) []string {
	if roles := toStrings(claims["roles"]); len(roles) > 0 {
		return dedupe(roles)
	}

	keys := make([]string, 0)
	for k := range claims {
		if k != "roles" && strings.Contains(strings.ToLower(k), "role") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if roles := toStrings(claims[k]); len(roles) > 0 {
			return dedupe(roles)
		}
	}

	if realm, ok := claims["realm_access"].(map[string]any); ok {
		if roles := toStrings(realm["roles"]); len(roles) > 0 {
			return dedupe(roles)
		}
	}

	if scope, ok := claims["scope"].(string); ok {
		return dedupe(strings.Fields(scope))
	}
	return []string{}
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case string:
		out := make([]string, 0)
		for _, p := range strings.Split(t, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
