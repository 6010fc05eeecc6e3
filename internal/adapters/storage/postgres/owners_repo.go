package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-clinic-appointments/internal/domain/owners"
	"pet-clinic-appointments/internal/ports/storage"
)

type OwnersRepo struct {
	db *sql.DB
}

func NewOwnersRepo(db *sql.DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

const ownerColumns = `id, name, email, phone, cpf, address, created_at, updated_at`

const ownerFilter = ` WHERE ($1 = '' OR email ILIKE '%' || $1 || '%')`

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		o.ID,
		o.Name,
		o.Email,
		o.Phone,
		o.CPF,
		o.Address,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return translate(err)
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return owners.Owner{}, storage.ErrNotFound
	}
	o, err := scanOwner(r.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id))
	if err != nil {
		return owners.Owner{}, translate(err)
	}
	return o, nil
}

func (r *OwnersRepo) List(ctx context.Context, f owners.Filter, page storage.Page) (storage.Result[owners.Owner], error) {
	page = storage.NewPage(page.Number, page.Limit)
	email := likeArg(strings.TrimSpace(f.Email))

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM owners`+ownerFilter, email).Scan(&total); err != nil {
		return storage.Result[owners.Owner]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ownerColumns+`
		FROM owners`+ownerFilter+`
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`, email, page.Limit, page.Offset())
	if err != nil {
		return storage.Result[owners.Owner]{}, err
	}
	defer rows.Close()

	items := make([]owners.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return storage.Result[owners.Owner]{}, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return storage.Result[owners.Owner]{}, err
	}

	return storage.Result[owners.Owner]{
		Items: items,
		Total: total,
		Page:  page.Number,
		Limit: page.Limit,
	}, nil
}

func (r *OwnersRepo) Update(ctx context.Context, id string, patch owners.Patch) (owners.Owner, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE owners
		SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			cpf = COALESCE($5, cpf),
			address = COALESCE($6, address),
			updated_at = now()
		WHERE id = $1
		RETURNING `+ownerColumns,
		id,
		patch.Name,
		patch.Email,
		patch.Phone,
		patch.CPF,
		patch.Address,
	)

	o, err := scanOwner(row)
	if err != nil {
		return owners.Owner{}, translate(err)
	}
	return o, nil
}

func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res)
}

func scanOwner(row rowScanner) (owners.Owner, error) {
	var o owners.Owner
	if err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Email,
		&o.Phone,
		&o.CPF,
		&o.Address,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return owners.Owner{}, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}
