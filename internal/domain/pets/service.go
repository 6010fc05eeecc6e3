package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-clinic-appointments/internal/authz"
	"pet-clinic-appointments/internal/integrity"
	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/ports/auth"
	"pet-clinic-appointments/internal/ports/lock"
	"pet-clinic-appointments/internal/ports/storage"

	"github.com/google/uuid"
)

type OwnerDirectory interface {
	Exists(ctx context.Context, ownerID string) (bool, error)
}

type DeleteGuard interface {
	CanDeletePet(ctx context.Context, petID string) (integrity.Result, error)
}

type Service struct {
	repo   Repository
	owners OwnerDirectory
	guard  DeleteGuard
	locker lock.Locker
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory, guard DeleteGuard, locker lock.Locker) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		guard:  guard,
		locker: locker,
		now:    time.Now,
	}
}

type CreateInput struct {
	Name        string
	Photo       string
	Age         *int
	Breed       string
	Weight      *float64
	Medications string
	Info        string
	Owner       OwnerChange
}

func (s *Service) Create(ctx context.Context, caller *auth.Claims, in CreateInput) (Pet, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Pet{}, err
	}

	name := strings.TrimSpace(in.Name)
	breed := strings.TrimSpace(in.Breed)
	if name == "" || breed == "" || in.Age == nil || in.Weight == nil {
		return Pet{}, apperr.Validation("nome, idade, raca, and peso are required")
	}
	if err := validateNumbers(in.Age, in.Weight); err != nil {
		return Pet{}, err
	}

	// sin ownerId: un no-admin registra la mascota a su nombre, admin la deja sin dueño
	ownerID := strings.TrimSpace(in.Owner.OwnerID)
	if !authz.IsAdmin(caller) {
		if ownerID == "" {
			ownerID = strings.TrimSpace(caller.Subject)
		}
		if ownerID != caller.Subject {
			return Pet{}, apperr.Forbidden("cannot register a pet for another owner")
		}
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return Pet{}, err
	}

	now := s.now().UTC()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Photo:       strings.TrimSpace(in.Photo),
		Age:         *in.Age,
		Breed:       breed,
		Weight:      *in.Weight,
		Medications: strings.TrimSpace(in.Medications),
		Info:        strings.TrimSpace(in.Info),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.locked(ctx, func() error {
		// bajo el lock del owner: un delete concurrente del owner ya terminó o espera
		if err := s.requireOwner(ctx, ownerID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return apperr.Internal(err)
		}
		return nil
	}, ownerKeys(ownerID)...)
	if err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, caller *auth.Claims, id string) (Pet, error) {
	if err := authz.RequireAuthenticated(caller); err != nil {
		return Pet{}, err
	}
	return s.loadOwned(ctx, caller, id)
}

// List: un no-admin solo ve sus mascotas; si pide otro ownerId el resultado es vacío.
func (s *Service) List(ctx context.Context, caller *auth.Claims, f Filter, p storage.Page) (storage.Result[Pet], error) {
	if err := authz.RequireAuthenticated(caller); err != nil {
		return storage.Result[Pet]{}, err
	}

	if scope := authz.OwnerScope(caller); scope != "" {
		if f.OwnerID != "" && f.OwnerID != scope {
			p = storage.NewPage(p.Number, p.Limit)
			return storage.Result[Pet]{Items: []Pet{}, Page: p.Number, Limit: p.Limit}, nil
		}
		f.OwnerID = scope
	}

	res, err := s.repo.List(ctx, f, p)
	if err != nil {
		return storage.Result[Pet]{}, apperr.Internal(err)
	}
	return res, nil
}

type UpdateInput struct {
	Name        *string
	Photo       *string
	Age         *int
	Breed       *string
	Weight      *float64
	Medications *string
	Info        *string
	Owner       OwnerChange
}

func (s *Service) Update(ctx context.Context, caller *auth.Claims, id string, in UpdateInput) (Pet, error) {
	if err := authz.RequireOperator(caller); err != nil {
		return Pet{}, err
	}
	current, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return Pet{}, err
	}

	patch := Patch{
		Photo:       trimmed(in.Photo),
		Age:         in.Age,
		Weight:      in.Weight,
		Medications: trimmed(in.Medications),
		Info:        trimmed(in.Info),
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, apperr.Validation("nome cannot be empty")
		}
		patch.Name = &name
	}
	if in.Breed != nil {
		breed := strings.TrimSpace(*in.Breed)
		if breed == "" {
			return Pet{}, apperr.Validation("raca cannot be empty")
		}
		patch.Breed = &breed
	}
	if err := validateNumbers(in.Age, in.Weight); err != nil {
		return Pet{}, err
	}

	var keys []string
	if in.Owner.Set {
		newOwner := strings.TrimSpace(in.Owner.OwnerID)
		if newOwner != current.OwnerID {
			if !authz.IsAdmin(caller) {
				return Pet{}, apperr.Forbidden("only admins can reassign a pet")
			}
			if err := s.requireOwner(ctx, newOwner); err != nil {
				return Pet{}, err
			}
			patch.Owner = OwnerChange{Set: true, OwnerID: newOwner}
			keys = append(keys, ownerKeys(newOwner)...)
		}
	}

	if patch.IsEmpty() {
		return current, nil
	}

	var updated Pet
	err = s.locked(ctx, func() error {
		if patch.Owner.Set {
			if err := s.requireOwner(ctx, patch.Owner.OwnerID); err != nil {
				return err
			}
		}
		updated, err = s.repo.Update(ctx, current.ID, patch)
		if err != nil {
			return storeErr(err)
		}
		return nil
	}, append(keys, lock.PetKey(current.ID))...)
	if err != nil {
		return Pet{}, err
	}
	return updated, nil
}

// Delete corre el guard de integridad bajo el lock de la mascota, así ninguna
// cita nueva entra entre el chequeo y el borrado.
func (s *Service) Delete(ctx context.Context, caller *auth.Claims, id string) error {
	if err := authz.RequireOperator(caller); err != nil {
		return err
	}
	current, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return err
	}

	return s.locked(ctx, func() error {
		res, err := s.guard.CanDeletePet(ctx, current.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := res.Err(); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, current.ID); err != nil {
			return storeErr(err)
		}
		return nil
	}, lock.PetKey(current.ID))
}

func (s *Service) loadOwned(ctx context.Context, caller *auth.Claims, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, storeErr(err)
	}
	if !authz.IsSelfOrAdmin(caller, p.OwnerID) {
		return Pet{}, apperr.Forbidden("")
	}
	return p, nil
}

func (s *Service) requireOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	ok, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("owner not found")
	}
	return nil
}

func (s *Service) locked(ctx context.Context, fn func() error, keys ...string) error {
	if s.locker == nil || len(keys) == 0 {
		return fn()
	}
	release, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		return apperr.Internal(err)
	}
	defer release()
	return fn()
}

func validateNumbers(age *int, weight *float64) error {
	if age != nil && *age < 0 {
		return apperr.Validation("idade must be >= 0")
	}
	if weight != nil && *weight < 0 {
		return apperr.Validation("peso must be >= 0")
	}
	return nil
}

func ownerKeys(ownerID string) []string {
	if ownerID == "" {
		return nil
	}
	return []string{lock.OwnerKey(ownerID)}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func storeErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("pet not found")
	}
	return apperr.Internal(err)
}
