package pets

import (
	"context"
	"strings"

	"pet-clinic-appointments/internal/ports/storage"
)

// Filter se aplica antes de paginar.
// Name es substring case-insensitive; OwnerID vacío no filtra.
type Filter struct {
	Name     string
	AgeGroup *AgeGroup
	OwnerID  string
}

func (f Filter) Matches(p Pet) bool {
	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.AgeGroup != nil && !f.AgeGroup.Contains(p.Age) {
		return false
	}
	return true
}

// OwnerChange distingue "no enviado" de "enviado (posiblemente null)".
type OwnerChange struct {
	Set     bool
	OwnerID string // "" con Set=true => quitar dueño
}

// Patch: punteros nil = no tocar. El store refresca UpdatedAt.
type Patch struct {
	Name        *string
	Photo       *string
	Age         *int
	Breed       *string
	Weight      *float64
	Medications *string
	Info        *string
	Owner       OwnerChange
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Photo == nil && p.Age == nil && p.Breed == nil &&
		p.Weight == nil && p.Medications == nil && p.Info == nil && !p.Owner.Set
}

func (p Patch) Apply(pet Pet) Pet {
	if p.Name != nil {
		pet.Name = *p.Name
	}
	if p.Photo != nil {
		pet.Photo = *p.Photo
	}
	if p.Age != nil {
		pet.Age = *p.Age
	}
	if p.Breed != nil {
		pet.Breed = *p.Breed
	}
	if p.Weight != nil {
		pet.Weight = *p.Weight
	}
	if p.Medications != nil {
		pet.Medications = *p.Medications
	}
	if p.Info != nil {
		pet.Info = *p.Info
	}
	if p.Owner.Set {
		pet.OwnerID = p.Owner.OwnerID
	}
	return pet
}

// Repository: List ordena por CreatedAt desc. Update/Delete/GetByID devuelven
// storage.ErrNotFound si no existe.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, f Filter, p storage.Page) (storage.Result[Pet], error)
	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, id string, patch Patch) (Pet, error)
	Delete(ctx context.Context, id string) error
}
