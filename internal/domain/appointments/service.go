package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-clinic-appointments/internal/authz"
	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/ports/auth"
	"pet-clinic-appointments/internal/ports/lock"
	"pet-clinic-appointments/internal/ports/storage"

	"github.com/google/uuid"
)

// PetDirectory expone el dueño de una mascota sin importar el módulo pets.
// Devuelve storage.ErrNotFound si no existe; "" si la mascota no tiene dueño.
type PetDirectory interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type OwnerDirectory interface {
	Exists(ctx context.Context, ownerID string) (bool, error)
}

// Recorder recibe eventos de negocio (métricas).
type Recorder interface {
	Transition(event string, ok bool)
	Conflict()
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, bool) {}
func (nopRecorder) Conflict()               {}

type Service struct {
	repo   Repository
	pets   PetDirectory
	owners OwnerDirectory
	locker lock.Locker
	rec    Recorder
	now    func() time.Time
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, pets PetDirectory, owners OwnerDirectory, locker lock.Locker, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		pets:   pets,
		owners: owners,
		locker: locker,
		rec:    nopRecorder{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	PetID       string
	OwnerID     string
	ScheduledAt *time.Time
	Notes       string
}

// Create: operator -> campos -> futuro -> mascota -> ownership -> dueño -> conflicto -> persistir.
func (s *Service) Create(ctx context.Context, caller *auth.Claims, in CreateInput) (Appointment, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Appointment{}, err
	}

	petID := strings.TrimSpace(in.PetID)
	ownerID := strings.TrimSpace(in.OwnerID)
	if petID == "" || ownerID == "" || in.ScheduledAt == nil {
		return Appointment{}, apperr.Validation("petId, ownerId, and dataHora are required")
	}
	at := in.ScheduledAt.UTC()
	if !at.After(s.now()) {
		return Appointment{}, apperr.Validation("appointment date must be in the future")
	}

	if err := s.checkRefs(ctx, caller, petID, ownerID); err != nil {
		return Appointment{}, err
	}

	var created Appointment
	err := s.locked(ctx, func() error {
		// mascota y dueño pudieron borrarse o reasignarse antes de tomar el lock
		if err := s.checkRefs(ctx, caller, petID, ownerID); err != nil {
			return err
		}

		history, err := s.repo.ListByPet(ctx, petID)
		if err != nil {
			return apperr.Internal(err)
		}
		if HasConflict(history, petID, at, "") {
			s.rec.Conflict()
			return apperr.Conflict("appointment conflict - pet already has an appointment at this time")
		}

		now := s.now().UTC()
		a := Appointment{
			ID:          uuid.NewString(),
			PetID:       petID,
			OwnerID:     ownerID,
			ScheduledAt: at,
			Status:      StatusPending,
			Notes:       strings.TrimSpace(in.Notes),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return apperr.Internal(err)
		}
		created = a
		return nil
	}, lock.PetKey(petID), lock.OwnerKey(ownerID))

	return created, err
}

// checkRefs valida mascota, ownership y dueño. Create la corre antes del lock
// para fallar rápido y de nuevo bajo el lock.
func (s *Service) checkRefs(ctx context.Context, caller *auth.Claims, petID, ownerID string) error {
	petOwner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return storeErr(err, "pet not found")
	}
	if !authz.IsSelfOrAdmin(caller, petOwner) {
		return apperr.Forbidden("")
	}

	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !exists {
		return apperr.NotFound("owner not found")
	}
	if petOwner != ownerID {
		return apperr.Validation("ownerId must be the pet's current owner")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, caller *auth.Claims, id string) (Appointment, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Appointment{}, err
	}
	return s.loadOwned(ctx, caller, id)
}

// List fuerza el scope del caller: un no-admin solo ve sus citas. Si pide
// otro ownerId el resultado es vacío.
func (s *Service) List(ctx context.Context, caller *auth.Claims, f Filter, p storage.Page) (storage.Result[Appointment], error) {
	if err := authz.RequireOperator(caller); err != nil {
		return storage.Result[Appointment]{}, err
	}

	if scope := authz.OwnerScope(caller); scope != "" {
		if f.OwnerID != "" && f.OwnerID != scope {
			p = storage.NewPage(p.Number, p.Limit)
			return storage.Result[Appointment]{Items: []Appointment{}, Page: p.Number, Limit: p.Limit}, nil
		}
		f.OwnerID = scope
	}

	res, err := s.repo.List(ctx, f, p)
	if err != nil {
		return storage.Result[Appointment]{}, apperr.Internal(err)
	}
	return res, nil
}

type UpdateInput struct {
	Status      *string
	ScheduledAt *time.Time
	Notes       *string
}

func (in UpdateInput) empty() bool {
	return in.Status == nil && in.ScheduledAt == nil && in.Notes == nil
}

func (in UpdateInput) onlyStatus() bool {
	return in.Status != nil && in.ScheduledAt == nil && in.Notes == nil
}

// Update es el PUT genérico. Un cambio de status pasa por la misma tabla
// de transiciones que los endpoints dedicados.
func (s *Service) Update(ctx context.Context, caller *auth.Claims, id string, in UpdateInput) (Appointment, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Appointment{}, err
	}
	current, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return Appointment{}, err
	}

	var next *Status
	if in.Status != nil {
		st, ok := ParseStatus(*in.Status)
		if !ok {
			return Appointment{}, apperr.Validation("invalid status")
		}
		next = &st
	}

	var updated Appointment
	err = s.locked(ctx, func() error {
		// releer bajo lock: otra request pudo cambiar el estado
		cur, err := s.repo.GetByID(ctx, current.ID)
		if err != nil {
			return storeErr(err, "appointment not found")
		}

		if in.empty() {
			updated = cur
			return nil
		}

		if cur.Status.Terminal() {
			if in.onlyStatus() && *next == cur.Status {
				updated = cur
				return nil
			}
			return apperr.Validationf("cannot modify %s appointment", terminalLabel(cur.Status))
		}

		now := s.now().UTC()
		var (
			patch Patch
			event Event
		)

		if next != nil && *next != cur.Status {
			if !CanTransition(cur.Status, *next) {
				return apperr.Validationf("invalid status transition from %s to %s", cur.Status, *next)
			}
			st := *next
			patch.Status = &st
			stamp(&patch, st, now)
			event = eventFor(st)
		}

		if in.ScheduledAt != nil {
			at := in.ScheduledAt.UTC()
			if !at.After(now) {
				return apperr.Validation("appointment date must be in the future")
			}
			resulting := cur.Status
			if patch.Status != nil {
				resulting = *patch.Status
			}
			if resulting.Active() {
				history, err := s.repo.ListByPet(ctx, cur.PetID)
				if err != nil {
					return apperr.Internal(err)
				}
				if HasConflict(history, cur.PetID, at, cur.ID) {
					s.rec.Conflict()
					return apperr.Conflict("appointment conflict - pet already has an appointment at this time")
				}
			}
			patch.ScheduledAt = &at
		}

		if in.Notes != nil {
			notes := strings.TrimSpace(*in.Notes)
			patch.Notes = &notes
		}

		if patch.IsEmpty() {
			updated = cur
			return nil
		}

		updated, err = s.repo.Update(ctx, cur.ID, patch)
		if err != nil {
			return storeErr(err, "appointment not found")
		}
		if event != "" {
			s.rec.Transition(string(event), true)
		}
		return nil
	}, lock.PetKey(current.PetID))

	return updated, err
}

func (s *Service) Confirm(ctx context.Context, caller *auth.Claims, id string) (Appointment, error) {
	return s.apply(ctx, caller, id, EventConfirm)
}

func (s *Service) Cancel(ctx context.Context, caller *auth.Claims, id string) (Appointment, error) {
	return s.apply(ctx, caller, id, EventCancel)
}

func (s *Service) Complete(ctx context.Context, caller *auth.Claims, id string) (Appointment, error) {
	return s.apply(ctx, caller, id, EventComplete)
}

func (s *Service) apply(ctx context.Context, caller *auth.Claims, id string, event Event) (Appointment, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Appointment{}, err
	}
	current, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return Appointment{}, err
	}

	var updated Appointment
	err = s.locked(ctx, func() error {
		cur, err := s.repo.GetByID(ctx, current.ID)
		if err != nil {
			return storeErr(err, "appointment not found")
		}

		to, err := Next(cur.Status, event)
		if err != nil {
			s.rec.Transition(string(event), false)
			return err
		}

		patch := Patch{Status: &to}
		stamp(&patch, to, s.now().UTC())

		updated, err = s.repo.Update(ctx, cur.ID, patch)
		if err != nil {
			return storeErr(err, "appointment not found")
		}
		s.rec.Transition(string(event), true)
		return nil
	}, lock.PetKey(current.PetID))

	return updated, err
}

func (s *Service) Delete(ctx context.Context, caller *auth.Claims, id string) error {
	if err := authz.RequireOperator(caller); err != nil {
		return err
	}
	current, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return storeErr(err, "appointment not found")
	}
	return nil
}

// ListByPet: dueño de la mascota o admin.
func (s *Service) ListByPet(ctx context.Context, caller *auth.Claims, petID string) ([]Appointment, error) {
	if err := authz.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return nil, storeErr(err, "pet not found")
	}
	if !authz.IsSelfOrAdmin(caller, owner) {
		return nil, apperr.Forbidden("")
	}

	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

// ListByOwner: el propio dueño o admin.
func (s *Service) ListByOwner(ctx context.Context, caller *auth.Claims, ownerID string) ([]Appointment, error) {
	if err := authz.RequireSelfOrAdmin(caller, ownerID); err != nil {
		return nil, err
	}
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !exists {
		return nil, apperr.NotFound("owner not found")
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

func (s *Service) loadOwned(ctx context.Context, caller *auth.Claims, id string) (Appointment, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Appointment{}, storeErr(err, "appointment not found")
	}
	if !authz.IsSelfOrAdmin(caller, a.OwnerID) {
		return Appointment{}, apperr.Forbidden("")
	}
	return a, nil
}

func (s *Service) locked(ctx context.Context, fn func() error, keys ...string) error {
	if s.locker == nil {
		return fn()
	}
	release, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		return apperr.Internal(err)
	}
	defer release()
	return fn()
}

func storeErr(err error, notFound string) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(notFound)
	default:
		return apperr.Internal(err)
	}
}

func terminalLabel(s Status) string {
	if s == StatusCompleted {
		return "completed"
	}
	return "canceled"
}
