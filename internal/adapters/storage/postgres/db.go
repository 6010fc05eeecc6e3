package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-clinic-appointments/internal/ports/storage"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open abre un pool a Postgres usando pgx (database/sql) y hace ping.
func Open(dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = 10
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 5
	}
	if pool.ConnMaxIdleTime <= 0 {
		pool.ConnMaxIdleTime = 5 * time.Minute
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		phone      TEXT NOT NULL DEFAULT '',
		cpf        TEXT NOT NULL DEFAULT '',
		address    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pets (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT REFERENCES owners(id),
		name        TEXT NOT NULL,
		photo       TEXT NOT NULL DEFAULT '',
		age         INTEGER NOT NULL CHECK (age >= 0),
		breed       TEXT NOT NULL,
		weight      DOUBLE PRECISION NOT NULL CHECK (weight >= 0),
		medications TEXT NOT NULL DEFAULT '',
		info        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pets_owner_id_idx ON pets (owner_id)`,
	// sin FK a pets/owners: las citas canceladas sobreviven al borrado
	`CREATE TABLE IF NOT EXISTS appointments (
		id           TEXT PRIMARY KEY,
		pet_id       TEXT NOT NULL,
		owner_id     TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		status       TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		confirmed_at TIMESTAMPTZ,
		canceled_at  TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS appointments_pet_id_idx ON appointments (pet_id, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS appointments_owner_id_idx ON appointments (owner_id)`,
}

// EnsureSchema crea tablas e índices si no existen.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// translate mapea errores del driver a los sentinels de storage.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrDuplicate
	}
	return err
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// likeArg escapa comodines para usar el valor dentro de ILIKE '%' || $n || '%'.
func likeArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
