package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	LockForShare(ctx context.Context, id int64) error
	LockForUpdate(ctx context.Context, id int64) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO users (username, password_hash) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if derr := constraintError(err); derr != nil {
			return derr
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *PGUserRepository) Update(ctx context.Context, user *domain.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE users SET username = $2, password_hash = $3, updated_at = now()
		WHERE id = $1 RETURNING created_at, updated_at`, user.ID, user.Username, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if derr := constraintError(err); derr != nil {
			return derr
		}
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	return nil
}

// Delete removes the user; reservations go with it through the foreign key cascade.
func (r *PGUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) LockForShare(ctx context.Context, id int64) error {
	return r.lock(ctx, id, `SELECT id FROM users WHERE id = $1 FOR SHARE`)
}

func (r *PGUserRepository) LockForUpdate(ctx context.Context, id int64) error {
	return r.lock(ctx, id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`)
}

func (r *PGUserRepository) lock(ctx context.Context, id int64, query string) error {
	var locked int64
	if err := conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock user %d: %w", id, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
