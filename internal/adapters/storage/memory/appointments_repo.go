package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/ports/storage"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
	now  clock
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return storage.ErrDuplicate
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (r *appointmentRepo) List(ctx context.Context, f appointments.Filter, page storage.Page) (storage.Result[appointments.Appointment], error) {
	return storage.Paginate(r.filter(f.Matches), page), nil
}

func (r *appointmentRepo) ListByPet(ctx context.Context, petID string) ([]appointments.Appointment, error) {
	return r.filter(func(a appointments.Appointment) bool { return a.PetID == petID }), nil
}

func (r *appointmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]appointments.Appointment, error) {
	return r.filter(func(a appointments.Appointment) bool { return a.OwnerID == ownerID }), nil
}

func (r *appointmentRepo) Update(ctx context.Context, id string, patch appointments.Patch) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, storage.ErrNotFound
	}
	a = patch.Apply(a)
	a.UpdatedAt = r.now.now()
	r.byID[id] = a
	return a, nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// filter devuelve copias ordenadas por fecha agendada asc.
func (r *appointmentRepo) filter(keep func(appointments.Appointment) bool) []appointments.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
