package appointments

import (
	"context"
	"time"

	"pet-clinic-appointments/internal/ports/storage"
)

// Filter se aplica antes de paginar. Campos vacíos no filtran.
// From/To son inclusivos sobre ScheduledAt.
type Filter struct {
	PetID   string
	OwnerID string
	Status  Status
	From    *time.Time
	To      *time.Time
}

func (f Filter) Matches(a Appointment) bool {
	if f.PetID != "" && a.PetID != f.PetID {
		return false
	}
	if f.OwnerID != "" && a.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.From != nil && a.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && a.ScheduledAt.After(*f.To) {
		return false
	}
	return true
}

// Patch es un update parcial: nil = no tocar. El store refresca UpdatedAt.
type Patch struct {
	ScheduledAt *time.Time
	Status      *Status
	Notes       *string

	ConfirmedAt *time.Time
	CanceledAt  *time.Time
	CompletedAt *time.Time
}

func (p Patch) IsEmpty() bool {
	return p.ScheduledAt == nil && p.Status == nil && p.Notes == nil &&
		p.ConfirmedAt == nil && p.CanceledAt == nil && p.CompletedAt == nil
}

// Apply copia los campos presentes sobre a. Lo usan los stores en memoria.
func (p Patch) Apply(a Appointment) Appointment {
	if p.ScheduledAt != nil {
		a.ScheduledAt = *p.ScheduledAt
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.ConfirmedAt != nil {
		a.ConfirmedAt = p.ConfirmedAt
	}
	if p.CanceledAt != nil {
		a.CanceledAt = p.CanceledAt
	}
	if p.CompletedAt != nil {
		a.CompletedAt = p.CompletedAt
	}
	return a
}

// Repository: List ordena por ScheduledAt asc; ListByPet/ListByOwner devuelven
// todo el historial (incluye canceladas). Update/Delete devuelven storage.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, f Filter, p storage.Page) (storage.Result[Appointment], error)
	ListByPet(ctx context.Context, petID string) ([]Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Appointment, error)
	Update(ctx context.Context, id string, patch Patch) (Appointment, error)
	Delete(ctx context.Context, id string) error
}
