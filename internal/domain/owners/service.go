package owners

import (
	"context"
	"errors"
	"regexp"
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

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type DeleteGuard interface {
	CanDeleteOwner(ctx context.Context, ownerID string) (integrity.Result, error)
}

type Service struct {
	repo   Repository
	guard  DeleteGuard
	locker lock.Locker
	now    func() time.Time
}

func NewService(repo Repository, guard DeleteGuard, locker lock.Locker) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		locker: locker,
		now:    time.Now,
	}
}

type CreateInput struct {
	// ID opcional: permite vincular el owner a un subject existente.
	ID      string
	Name    string
	Email   string
	Phone   string
	CPF     string
	Address string
}

func (s *Service) Create(ctx context.Context, caller *auth.Claims, in CreateInput) (Owner, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return Owner{}, err
	}

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return Owner{}, apperr.Validation("nome and email are required")
	}
	if !emailRe.MatchString(email) {
		return Owner{}, apperr.Validation("invalid email")
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := s.repo.GetByID(ctx, id); err == nil {
		return Owner{}, apperr.Conflict("owner already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Owner{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	o := Owner{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		CPF:       strings.TrimSpace(in.CPF),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, storeErr(err)
	}
	return o, nil
}

// Get: el propio owner o admin.
func (s *Service) Get(ctx context.Context, caller *auth.Claims, id string) (Owner, error) {
	id = strings.TrimSpace(id)
	if err := authz.RequireSelfOrAdmin(caller, id); err != nil {
		return Owner{}, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, storeErr(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, caller *auth.Claims, f Filter, p storage.Page) (storage.Result[Owner], error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return storage.Result[Owner]{}, err
	}
	res, err := s.repo.List(ctx, f, p)
	if err != nil {
		return storage.Result[Owner]{}, apperr.Internal(err)
	}
	return res, nil
}

type UpdateInput struct {
	Name    *string
	Email   *string
	Phone   *string
	CPF     *string
	Address *string
}

func (s *Service) Update(ctx context.Context, caller *auth.Claims, id string, in UpdateInput) (Owner, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return Owner{}, err
	}
	current, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Owner{}, storeErr(err)
	}

	patch := Patch{
		Phone:   trimmed(in.Phone),
		CPF:     trimmed(in.CPF),
		Address: trimmed(in.Address),
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Owner{}, apperr.Validation("nome cannot be empty")
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !emailRe.MatchString(email) {
			return Owner{}, apperr.Validation("invalid email")
		}
		patch.Email = &email
	}

	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return Owner{}, storeErr(err)
	}
	return updated, nil
}

// Delete corre el guard bajo el lock del owner; crear mascotas o citas
// para este owner toma el mismo lock.
func (s *Service) Delete(ctx context.Context, caller *auth.Claims, id string) error {
	if err := authz.RequireAdmin(caller); err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return storeErr(err)
	}

	release, err := s.acquire(ctx, lock.OwnerKey(current.ID))
	if err != nil {
		return err
	}
	defer release()

	res, err := s.guard.CanDeleteOwner(ctx, current.ID)
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
}

// Exists lo usan pets y appointments para validar referencias.
func (s *Service) Exists(ctx context.Context, ownerID string) (bool, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return false, nil
	}
	_, err := s.repo.GetByID(ctx, ownerID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) acquire(ctx context.Context, keys ...string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return release, nil
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("owner not found")
	case errors.Is(err, storage.ErrDuplicate):
		return apperr.Conflict("email already registered")
	default:
		return apperr.Internal(err)
	}
}
