package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/domain/owners"
	"pet-clinic-appointments/internal/domain/pets"
	"pet-clinic-appointments/internal/ports/storage"
)

var base = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

func TestPetRepo_ListFiltersBeforePaging(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	for i := 0; i < 5; i++ {
		owner := "bob"
		if i%2 == 0 && i < 4 {
			owner = "ana"
		}
		p := pets.Pet{
			ID:        fmt.Sprintf("p%d", i),
			OwnerID:   owner,
			Name:      fmt.Sprintf("Rex %d", i),
			Age:       i * 4,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := repo.List(ctx, pets.Filter{OwnerID: "ana"}, storage.NewPage(1, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 1 {
		t.Fatalf("expected total 2 with 1 item, got total=%d items=%d", res.Total, len(res.Items))
	}
	if res.Items[0].ID != "p2" {
		t.Fatalf("expected newest first (p2), got %s", res.Items[0].ID)
	}

	g, _ := pets.ParseAgeGroup("8-12")
	res, _ = repo.List(ctx, pets.Filter{Name: "rex", AgeGroup: &g}, storage.NewPage(1, 10))
	if res.Total != 2 {
		t.Fatalf("expected ages 8 and 12, got total=%d", res.Total)
	}

	n, _ := repo.CountByOwner(ctx, "bob")
	if n != 3 {
		t.Fatalf("expected 3 pets for bob, got %d", n)
	}
}

func TestPetRepo_UpdateAppliesOnlyPresentFieldsAndRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()
	later := base.Add(time.Hour)
	repo.(*petRepo).now = func() time.Time { return later }

	if err := repo.Create(ctx, pets.Pet{ID: "p1", OwnerID: "ana", Name: "Rex", Breed: "Labrador", CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Rex II"
	got, err := repo.Update(ctx, "p1", pets.Patch{Name: &name, Owner: pets.OwnerChange{Set: true}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Rex II" || got.Breed != "Labrador" || got.OwnerID != "" {
		t.Fatalf("unexpected pet after patch: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updatedAt refreshed, got %v", got.UpdatedAt)
	}

	if _, err := repo.Update(ctx, "missing", pets.Patch{Name: &name}); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOwnerRepo_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewOwnerRepo()

	if err := repo.Create(ctx, owners.Owner{ID: "ana", Email: "ana@x.com", CreatedAt: base}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, owners.Owner{ID: "other", Email: "ana@x.com"}); err != storage.ErrDuplicate {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	if err := repo.Create(ctx, owners.Owner{ID: "bob", Email: "bob@x.com", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	taken := "ana@x.com"
	if _, err := repo.Update(ctx, "bob", owners.Patch{Email: &taken}); err != storage.ErrDuplicate {
		t.Fatalf("expected duplicate on update, got %v", err)
	}

	res, _ := repo.List(ctx, owners.Filter{Email: "X.COM"}, storage.NewPage(1, 10))
	if res.Total != 2 || res.Items[0].ID != "bob" {
		t.Fatalf("expected both owners newest first, got %+v", res)
	}

	if err := repo.Delete(ctx, "ana"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Create(ctx, owners.Owner{ID: "ana2", Email: "ana@x.com"}); err != nil {
		t.Fatalf("email must be free after delete: %v", err)
	}
}

func TestAppointmentRepo_ListSortedAndFiltered(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepo()

	seed := []appointments.Appointment{
		{ID: "a3", PetID: "rex", OwnerID: "ana", ScheduledAt: base.Add(3 * time.Hour), Status: appointments.StatusPending},
		{ID: "a1", PetID: "rex", OwnerID: "ana", ScheduledAt: base.Add(1 * time.Hour), Status: appointments.StatusCanceled},
		{ID: "a2", PetID: "mia", OwnerID: "bob", ScheduledAt: base.Add(2 * time.Hour), Status: appointments.StatusConfirmed},
	}
	for _, a := range seed {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, _ := repo.List(ctx, appointments.Filter{}, storage.NewPage(1, 10))
	if len(res.Items) != 3 || res.Items[0].ID != "a1" || res.Items[2].ID != "a3" {
		t.Fatalf("expected ascending by dataHora, got %+v", res.Items)
	}

	from := base.Add(2 * time.Hour)
	to := base.Add(3 * time.Hour)
	res, _ = repo.List(ctx, appointments.Filter{From: &from, To: &to}, storage.NewPage(1, 10))
	if res.Total != 2 {
		t.Fatalf("expected inclusive range to match 2, got %d", res.Total)
	}

	res, _ = repo.List(ctx, appointments.Filter{Status: appointments.StatusCanceled}, storage.NewPage(1, 10))
	if res.Total != 1 || res.Items[0].ID != "a1" {
		t.Fatalf("unexpected status filter result: %+v", res)
	}

	byPet, _ := repo.ListByPet(ctx, "rex")
	if len(byPet) != 2 {
		t.Fatalf("expected full history for rex, got %d", len(byPet))
	}
}
