package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-clinic-appointments/internal/domain/appointments"
	"pet-clinic-appointments/internal/ports/storage"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentColumns = `
	id, pet_id, owner_id,
	scheduled_at, status, notes,
	created_at, updated_at,
	confirmed_at, canceled_at, completed_at`

const appointmentFilter = `
	WHERE ($1 = '' OR pet_id = $1)
	  AND ($2 = '' OR owner_id = $2)
	  AND ($3 = '' OR status = $3)
	  AND ($4::timestamptz IS NULL OR scheduled_at >= $4)
	  AND ($5::timestamptz IS NULL OR scheduled_at <= $5)`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		a.ID,
		a.PetID,
		a.OwnerID,
		a.ScheduledAt,
		string(a.Status),
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
		a.ConfirmedAt,
		a.CanceledAt,
		a.CompletedAt,
	)
	return translate(err)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, storage.ErrNotFound
	}
	a, err := scanAppointment(r.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return appointments.Appointment{}, translate(err)
	}
	return a, nil
}

func (r *AppointmentsRepo) List(ctx context.Context, f appointments.Filter, page storage.Page) (storage.Result[appointments.Appointment], error) {
	page = storage.NewPage(page.Number, page.Limit)
	args := []any{f.PetID, f.OwnerID, string(f.Status), f.From, f.To}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`+appointmentFilter, args...).Scan(&total); err != nil {
		return storage.Result[appointments.Appointment]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments`+appointmentFilter+`
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $6 OFFSET $7
	`, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return storage.Result[appointments.Appointment]{}, err
	}
	defer rows.Close()

	items, err := scanAppointments(rows)
	if err != nil {
		return storage.Result[appointments.Appointment]{}, err
	}

	return storage.Result[appointments.Appointment]{
		Items: items,
		Total: total,
		Page:  page.Number,
		Limit: page.Limit,
	}, nil
}

func (r *AppointmentsRepo) ListByPet(ctx context.Context, petID string) ([]appointments.Appointment, error) {
	return r.listBy(ctx, "pet_id", petID)
}

func (r *AppointmentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]appointments.Appointment, error) {
	return r.listBy(ctx, "owner_id", ownerID)
}

// column viene de este paquete, nunca del request.
func (r *AppointmentsRepo) listBy(ctx context.Context, column, value string) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY scheduled_at ASC, id ASC
	`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) Update(ctx context.Context, id string, patch appointments.Patch) (appointments.Appointment, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET
			scheduled_at = COALESCE($2, scheduled_at),
			status = COALESCE($3, status),
			notes = COALESCE($4, notes),
			confirmed_at = COALESCE($5, confirmed_at),
			canceled_at = COALESCE($6, canceled_at),
			completed_at = COALESCE($7, completed_at),
			updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id,
		patch.ScheduledAt,
		status,
		patch.Notes,
		patch.ConfirmedAt,
		patch.CanceledAt,
		patch.CompletedAt,
	)

	a, err := scanAppointment(row)
	if err != nil {
		return appointments.Appointment{}, translate(err)
	}
	return a, nil
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res)
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var status string
	var confirmed, canceled, completed sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.OwnerID,
		&a.ScheduledAt,
		&status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&confirmed,
		&canceled,
		&completed,
	); err != nil {
		return appointments.Appointment{}, err
	}

	a.Status = appointments.Status(status)
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	a.ConfirmedAt = timePtr(confirmed)
	a.CanceledAt = timePtr(canceled)
	a.CompletedAt = timePtr(completed)
	return a, nil
}

func scanAppointments(rows *sql.Rows) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
