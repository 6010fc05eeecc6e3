package owners

import (
	"context"
	"strings"

	"pet-clinic-appointments/internal/ports/storage"
)

// Filter.Email es substring case-insensitive.
type Filter struct {
	Email string
}

func (f Filter) Matches(o Owner) bool {
	if f.Email == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.Email), strings.ToLower(f.Email))
}

type Patch struct {
	Name    *string
	Email   *string
	Phone   *string
	CPF     *string
	Address *string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.CPF == nil && p.Address == nil
}

func (p Patch) Apply(o Owner) Owner {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Email != nil {
		o.Email = *p.Email
	}
	if p.Phone != nil {
		o.Phone = *p.Phone
	}
	if p.CPF != nil {
		o.CPF = *p.CPF
	}
	if p.Address != nil {
		o.Address = *p.Address
	}
	return o
}

// Repository: Create/Update devuelven storage.ErrDuplicate si el email ya existe.
// List ordena por CreatedAt desc.
type Repository interface {
	Create(ctx context.Context, o Owner) error
	GetByID(ctx context.Context, id string) (Owner, error)
	List(ctx context.Context, f Filter, p storage.Page) (storage.Result[Owner], error)
	Update(ctx context.Context, id string, patch Patch) (Owner, error)
	Delete(ctx context.Context, id string) error
}
