package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-clinic-appointments/internal/domain/pets"
	"pet-clinic-appointments/internal/ports/storage"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
	now  clock
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return storage.ErrDuplicate
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) List(ctx context.Context, f pets.Filter, page storage.Page) (storage.Result[pets.Pet], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)

	return storage.Paginate(out, page), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if ownerID != "" && p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *petRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	items, err := r.ListByOwner(ctx, ownerID)
	return len(items), err
}

func (r *petRepo) Update(ctx context.Context, id string, patch pets.Patch) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, storage.ErrNotFound
	}
	p = patch.Apply(p)
	p.UpdatedAt = r.now.now()
	r.byID[id] = p
	return p, nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Orden por created_at desc; id desempata para que paginar sea estable.
func sortNewestFirst(items []pets.Pet) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
