package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-clinic-appointments/internal/domain/owners"
	"pet-clinic-appointments/internal/ports/storage"
)

type ownerRepo struct {
	mu      sync.RWMutex
	byID    map[string]owners.Owner
	byEmail map[string]string // email -> id
	now     clock
}

func NewOwnerRepo() owners.Repository {
	return &ownerRepo{
		byID:    make(map[string]owners.Owner),
		byEmail: make(map[string]string),
	}
}

func (r *ownerRepo) Create(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.ID) == "" {
		return errors.New("owner id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return storage.ErrDuplicate
	}
	if _, taken := r.byEmail[o.Email]; taken {
		return storage.ErrDuplicate
	}
	r.byID[o.ID] = o
	r.byEmail[o.Email] = o.ID
	return nil
}

func (r *ownerRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return owners.Owner{}, storage.ErrNotFound
	}
	return o, nil
}

func (r *ownerRepo) List(ctx context.Context, f owners.Filter, page storage.Page) (storage.Result[owners.Owner], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]owners.Owner, 0)
	for _, o := range r.byID {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return storage.Paginate(out, page), nil
}

func (r *ownerRepo) Update(ctx context.Context, id string, patch owners.Patch) (owners.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return owners.Owner{}, storage.ErrNotFound
	}
	if patch.Email != nil && *patch.Email != o.Email {
		if other, taken := r.byEmail[*patch.Email]; taken && other != id {
			return owners.Owner{}, storage.ErrDuplicate
		}
		delete(r.byEmail, o.Email)
		r.byEmail[*patch.Email] = id
	}

	o = patch.Apply(o)
	o.UpdatedAt = r.now.now()
	r.byID[id] = o
	return o, nil
}

func (r *ownerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(r.byEmail, o.Email)
	delete(r.byID, id)
	return nil
}
