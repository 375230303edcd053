package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trainbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

const upsertUser = `
INSERT INTO users (id, name, verified, phone, phone_ok)
VALUES (:id, :name, :verified, :phone, :phone_ok)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    verified = EXCLUDED.verified,
    phone = EXCLUDED.phone,
    phone_ok = EXCLUDED.phone_ok`

// pgStore implements Store over a users table. Unlike the file backend it
// has no in-memory cache; Postgres is the authority.
type pgStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-connected sqlx handle.
func NewPostgresStore(db *sqlx.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: nil database handle")
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Get(ctx context.Context, uid int64) (domain.UserRecord, error) {
	var rec domain.UserRecord
	err := s.db.GetContext(ctx, &rec, `SELECT id, name, verified, phone, phone_ok FROM users WHERE id = $1`, uid)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.UserRecord{ID: uid}, &PersistenceError{Op: "get", Err: err}
	}

	rec = domain.UserRecord{ID: uid}
	if _, err := s.db.NamedExecContext(ctx, upsertUser, rec); err != nil {
		return rec, &PersistenceError{Op: "create", Err: err}
	}
	return rec, nil
}

func (s *pgStore) Update(ctx context.Context, uid int64, mutate func(*domain.UserRecord)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var rec domain.UserRecord
	err = tx.GetContext(ctx, &rec, `SELECT id, name, verified, phone, phone_ok FROM users WHERE id = $1 FOR UPDATE`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		rec = domain.UserRecord{ID: uid}
	} else if err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}

	mutate(&rec)
	rec.ID = uid

	if _, err := tx.NamedExecContext(ctx, upsertUser, rec); err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	return nil
}

func (s *pgStore) All(ctx context.Context) ([]domain.UserRecord, error) {
	var out []domain.UserRecord
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, verified, phone, phone_ok FROM users ORDER BY id`); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

func (s *pgStore) Close() error { return s.db.Close() }
