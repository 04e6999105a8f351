package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restkit/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, req *models.UpdateUserRequest) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	ToggleStatus(ctx context.Context, id int64) (bool, error)
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, token, status, provider, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const op = "repository.userRepository.Create"

	query := `
		INSERT INTO users (name, email, phone, password_hash, token, status, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Phone, user.PasswordHash, user.Token, user.Status, user.Provider,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "repository.userRepository.GetByID", query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, "repository.userRepository.GetByEmail", query, email)
}

func (r *userRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	return r.getOne(ctx, "repository.userRepository.GetByToken", query, token)
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var (
		u     models.User
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &u.Token, &u.Status, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Phone = phone.String
	return &u, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *models.UpdateUserRequest) error {
	query := `UPDATE users SET name = $1, phone = $2, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $3`
	return r.execOne(ctx, "repository.userRepository.UpdateProfile", query, req.Name, req.Phone, id)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $2`
	return r.execOne(ctx, "repository.userRepository.UpdatePasswordHash", query, passwordHash, id)
}

func (r *userRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	const op = "repository.userRepository.UpdateEmail"

	query := `UPDATE users SET email = $1, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $2`
	err := r.execOne(ctx, op, query, email, id)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return err
}

func (r *userRepository) ToggleStatus(ctx context.Context, id int64) (bool, error) {
	const op = "repository.userRepository.ToggleStatus"

	var status bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET status = NOT status, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $1 RETURNING status`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return status, nil
}

func (r *userRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
