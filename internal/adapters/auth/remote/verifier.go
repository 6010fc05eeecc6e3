package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-clinic-appointments/internal/platform/httpclient"
	"pet-clinic-appointments/internal/ports/auth"
)

const verifyPath = "/v1/tokens/verify"

var (
	ErrNotConfigured = errors.New("remote auth not configured")
	ErrUnauthorized  = errors.New("remote auth unauthorized")
	ErrUpstream      = errors.New("remote auth upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key. Por defecto "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Verifier delega la validación del token a un servicio IAM externo.
type Verifier struct {
	client       *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func New(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	c, err := httpclient.New(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Verifier{client: c, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: h}, nil
}

type verifyResponse struct {
	Subject string   `json:"subject"`
	UserID  string   `json:"user_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{
		v.apiKeyHeader:  v.apiKey,
		"Authorization": "Bearer " + token,
	}
	var out verifyResponse
	err := v.client.DoJSON(ctx, http.MethodPost, verifyPath, headers, map[string]string{"token": token}, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrUnauthorized
		default:
			return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	sub := strings.TrimSpace(out.Subject)
	if sub == "" {
		sub = strings.TrimSpace(out.UserID)
	}
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing subject", ErrUpstream)
	}

	roles := make([]string, 0, len(out.Roles))
	for _, r := range out.Roles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}

	return auth.Claims{
		Subject: sub,
		Email:   strings.TrimSpace(out.Email),
		Roles:   roles,
	}, nil
}
