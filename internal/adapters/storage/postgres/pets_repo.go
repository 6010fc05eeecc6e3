package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-clinic-appointments/internal/domain/pets"
	"pet-clinic-appointments/internal/ports/storage"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_id,
	name, photo, age, breed, weight,
	medications, info,
	created_at, updated_at`

// Filtros con parámetros nulos/vacíos: la query es siempre la misma.
const petFilter = `
	WHERE ($1 = '' OR owner_id = $1)
	  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
	  AND ($3::int IS NULL OR age >= $3)
	  AND ($4::int IS NULL OR age <= $4)`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		nullString(p.OwnerID),
		p.Name,
		p.Photo,
		p.Age,
		p.Breed,
		p.Weight,
		p.Medications,
		p.Info,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return translate(err)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, storage.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, translate(err)
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, f pets.Filter, page storage.Page) (storage.Result[pets.Pet], error) {
	page = storage.NewPage(page.Number, page.Limit)

	var minAge, maxAge *int
	if f.AgeGroup != nil {
		lo, hi := f.AgeGroup.Min, f.AgeGroup.Max
		minAge, maxAge = &lo, &hi
	}
	args := []any{f.OwnerID, likeArg(f.Name), minAge, maxAge}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets`+petFilter, args...).Scan(&total); err != nil {
		return storage.Result[pets.Pet]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets`+petFilter+`
		ORDER BY created_at DESC, id ASC
		LIMIT $5 OFFSET $6
	`, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return storage.Result[pets.Pet]{}, err
	}
	defer rows.Close()

	items, err := scanPets(rows)
	if err != nil {
		return storage.Result[pets.Pet]{}, err
	}

	return storage.Result[pets.Pet]{
		Items: items,
		Total: total,
		Page:  page.Number,
		Limit: page.Limit,
	}, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return []pets.Pet{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPets(rows)
}

func (r *PetsRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// Update: COALESCE deja intacto lo que viene NULL. owner_id usa un flag
// aparte porque NULL también es un valor válido (sin dueño).
func (r *PetsRepo) Update(ctx context.Context, id string, patch pets.Patch) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE pets
		SET
			name = COALESCE($2, name),
			photo = COALESCE($3, photo),
			age = COALESCE($4, age),
			breed = COALESCE($5, breed),
			weight = COALESCE($6, weight),
			medications = COALESCE($7, medications),
			info = COALESCE($8, info),
			owner_id = CASE WHEN $9 THEN $10 ELSE owner_id END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+petColumns,
		id,
		patch.Name,
		patch.Photo,
		patch.Age,
		patch.Breed,
		patch.Weight,
		patch.Medications,
		patch.Info,
		patch.Owner.Set,
		nullString(patch.Owner.OwnerID),
	)

	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, translate(err)
	}
	return p, nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var owner sql.NullString
	if err := row.Scan(
		&p.ID,
		&owner,
		&p.Name,
		&p.Photo,
		&p.Age,
		&p.Breed,
		&p.Weight,
		&p.Medications,
		&p.Info,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.OwnerID = owner.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func scanPets(rows *sql.Rows) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
