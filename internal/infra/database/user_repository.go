package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

// UserRepository backs the identity collaborator: auth_users plus profiles.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts the user and its profile in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *entity.User, isAdmin bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	); err != nil {
		_ = tx.Rollback()
		return mapError(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, is_admin) VALUES ($1, $2)`,
		u.ID, isAdmin,
	); err != nil {
		_ = tx.Rollback()
		return mapError(err)
	}

	return tx.Commit()
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM auth_users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if u.ID == "" || u.PasswordHash == "" {
		return nil, fmt.Errorf("invalid user row for %s", u.Email)
	}
	return &u, nil
}

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	var p entity.Profile
	err := r.DB.QueryRowContext(ctx, `SELECT id, is_admin FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.IsAdmin)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}
