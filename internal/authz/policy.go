package authz

import (
	"slices"
	"strings"

	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/ports/auth"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Los predicados usan pertenencia exacta (sin case folding).
// Un caller nil nunca tiene privilegios.

func IsAdmin(c *auth.Claims) bool {
	return c != nil && slices.Contains(c.Roles, RoleAdmin)
}

// IsOperator: admin implica operator.
func IsOperator(c *auth.Claims) bool {
	return c != nil && (slices.Contains(c.Roles, RoleOperator) || IsAdmin(c))
}

func IsSelfOrAdmin(c *auth.Claims, ownerID string) bool {
	if c == nil {
		return false
	}
	if IsAdmin(c) {
		return true
	}
	sub := strings.TrimSpace(c.Subject)
	return sub != "" && sub == strings.TrimSpace(ownerID)
}

func RequireAuthenticated(c *auth.Claims) error {
	if c == nil || strings.TrimSpace(c.Subject) == "" {
		return apperr.Unauthenticated()
	}
	return nil
}

func RequireOperator(c *auth.Claims) error {
	if err := RequireAuthenticated(c); err != nil {
		return err
	}
	if !IsOperator(c) {
		return apperr.Forbidden("operator role required")
	}
	return nil
}

func RequireAdmin(c *auth.Claims) error {
	if err := RequireAuthenticated(c); err != nil {
		return err
	}
	if !IsAdmin(c) {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

func RequireSelfOrAdmin(c *auth.Claims, ownerID string) error {
	if err := RequireAuthenticated(c); err != nil {
		return err
	}
	if !IsSelfOrAdmin(c, ownerID) {
		return apperr.Forbidden("")
	}
	return nil
}

// OwnerScope devuelve el filtro de dueño que aplica a un listado:
// admin ve todo (""), el resto solo lo suyo.
func OwnerScope(c *auth.Claims) string {
	if IsAdmin(c) || c == nil {
		return ""
	}
	return strings.TrimSpace(c.Subject)
}
