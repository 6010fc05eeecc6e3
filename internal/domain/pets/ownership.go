package pets

import (
	"context"
	"strings"
)

// OwnerOf expone el dueño de una mascota ("" si no tiene).
// Se usa desde appointments para evitar ciclos de imports.
// Devuelve storage.ErrNotFound tal cual para que el caller decida el mensaje.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return "", err
	}
	return p.OwnerID, nil
}

// CountByOwner alimenta el guard de integridad de owners.
func (s *Service) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}
