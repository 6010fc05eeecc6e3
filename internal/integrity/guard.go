package integrity

import (
	"context"
	"fmt"

	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/platform/apperr"
)

type PetCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type AppointmentSource interface {
	ListByPet(ctx context.Context, petID string) ([]appointments.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]appointments.Appointment, error)
}

type Recorder interface {
	IntegrityBlocked(entity string)
}

// Result es la respuesta del guard. Reason solo tiene sentido si !Allowed.
type Result struct {
	Allowed bool
	Reason  string
}

func allowed() Result { return Result{Allowed: true} }

func blocked(format string, args ...any) Result {
	return Result{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Err convierte un bloqueo en 409 con Reason como mensaje.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return apperr.Conflict(r.Reason)
}

// Guard evita borrar mascotas u owners con registros dependientes activos.
type Guard struct {
	pets  PetCounter
	appts AppointmentSource
	rec   Recorder
}

func NewGuard(pets PetCounter, appts AppointmentSource, rec Recorder) *Guard {
	return &Guard{pets: pets, appts: appts, rec: rec}
}

// CanDeletePet bloquea si hay al menos una cita no cancelada.
func (g *Guard) CanDeletePet(ctx context.Context, petID string) (Result, error) {
	items, err := g.appts.ListByPet(ctx, petID)
	if err != nil {
		return Result{}, err
	}
	if n := appointments.CountActive(items); n > 0 {
		g.blockedOn("pet")
		return blocked("Pet has %d active appointment(s)", n), nil
	}
	return allowed(), nil
}

// CanDeleteOwner: primero mascotas (sin importar sus citas), después citas activas.
func (g *Guard) CanDeleteOwner(ctx context.Context, ownerID string) (Result, error) {
	pets, err := g.pets.CountByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	if pets > 0 {
		g.blockedOn("owner")
		return blocked("Owner has %d pet(s) registered", pets), nil
	}

	items, err := g.appts.ListByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	if n := appointments.CountActive(items); n > 0 {
		g.blockedOn("owner")
		return blocked("Owner has %d active appointment(s)", n), nil
	}
	return allowed(), nil
}

func (g *Guard) blockedOn(entity string) {
	if g.rec != nil {
		g.rec.IntegrityBlocked(entity)
	}
}
