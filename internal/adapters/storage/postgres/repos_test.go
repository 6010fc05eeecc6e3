package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/domain/owners"
	"pet-clinic-appointments/internal/domain/pets"
	"pet-clinic-appointments/internal/ports/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var petCols = []string{
	"id", "owner_id", "name", "photo", "age", "breed", "weight",
	"medications", "info", "created_at", "updated_at",
}

func TestPetsRepo_CreateDuplicateMapsToSentinel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pets")).
		WithArgs("p1", sql.NullString{}, "Rex", "", 3, "Labrador", 10.0, "", "", ts, ts).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), pets.Pet{
		ID: "p1", Name: "Rex", Age: 3, Breed: "Labrador", Weight: 10, CreatedAt: ts, UpdatedAt: ts,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestPetsRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pets WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPetsRepo_ListCountsThenPages(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)

	g := pets.AgeGroup{Min: 15, Max: 30}
	lo, hi := 15, 30

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pets")).
		WithArgs("ana", `50\%`, &lo, &hi).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id ASC")).
		WithArgs("ana", `50\%`, &lo, &hi, 1, 1).
		WillReturnRows(sqlmock.NewRows(petCols).
			AddRow("p2", "ana", "Rex 50%", "", 16, "Labrador", 10.5, "", "", ts, ts))

	res, err := repo.List(context.Background(), pets.Filter{OwnerID: "ana", Name: "50%", AgeGroup: &g}, storage.NewPage(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Page)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "ana", res.Items[0].OwnerID)
	assert.Equal(t, 16, res.Items[0].Age)
}

func TestPetsRepo_UpdateClearsOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)

	name := "Rex II"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE pets")).
		WithArgs("p1", &name, nil, nil, nil, nil, nil, nil, true, sql.NullString{}).
		WillReturnRows(sqlmock.NewRows(petCols).
			AddRow("p1", nil, "Rex II", "", 3, "Labrador", 10.0, "", "", ts, ts.Add(time.Minute)))

	got, err := repo.Update(context.Background(), "p1", pets.Patch{Name: &name, Owner: pets.OwnerChange{Set: true}})
	require.NoError(t, err)
	assert.Equal(t, "", got.OwnerID)
	assert.Equal(t, "Rex II", got.Name)
}

func TestOwnersRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOwnersRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM owners WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), storage.ErrNotFound)
}

func TestOwnersRepo_UpdateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOwnersRepo(db)

	email := "ana@x.com"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE owners")).
		WithArgs("bob", nil, &email, nil, nil, nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Update(context.Background(), "bob", owners.Patch{Email: &email})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestAppointmentsRepo_UpdateStampsAndScansNullableTimes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentsRepo(db)

	status := appointments.StatusConfirmed
	confirmedAt := ts.Add(time.Minute)
	cols := []string{
		"id", "pet_id", "owner_id", "scheduled_at", "status", "notes",
		"created_at", "updated_at", "confirmed_at", "canceled_at", "completed_at",
	}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE appointments")).
		WithArgs("a1", nil, "confirmado", nil, &confirmedAt, nil, nil).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "rex", "ana", ts.Add(time.Hour), "confirmado", "", ts, confirmedAt, confirmedAt, nil, nil))

	got, err := repo.Update(context.Background(), "a1", appointments.Patch{Status: &status, ConfirmedAt: &confirmedAt})
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(confirmedAt))
	assert.Nil(t, got.CanceledAt)
}

func TestAppointmentsRepo_ListByPetOrdersBySchedule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE pet_id = $1")).
		WithArgs("rex").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "pet_id", "owner_id", "scheduled_at", "status", "notes",
			"created_at", "updated_at", "confirmed_at", "canceled_at", "completed_at",
		}).
			AddRow("a1", "rex", "ana", ts, "pendente", "", ts, ts, nil, nil, nil).
			AddRow("a2", "rex", "ana", ts.Add(time.Hour), "cancelado", "", ts, ts, nil, ts, nil))

	items, err := repo.ListByPet(context.Background(), "rex")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, appointments.CountActive(items))
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMock(t)
	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(context.Background(), db))
}
