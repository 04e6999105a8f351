package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restkit/internal/interfaces"
	"restkit/internal/models"
)

type fooRepository struct {
	db DBTX
}

func NewFooRepository(db DBTX) interfaces.FooRepository {
	return &fooRepository{db: db}
}

func (r *fooRepository) Create(ctx context.Context, foo *models.Foo) error {
	const op = "repository.fooRepository.Create"

	query := `
		INSERT INTO foo (name, description, value, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, foo.Name, foo.Description, foo.Value, foo.Status).
		Scan(&foo.ID, &foo.CreatedAt, &foo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *fooRepository) GetByID(ctx context.Context, id int64) (*models.Foo, error) {
	const op = "repository.fooRepository.GetByID"

	query := `
		SELECT id, name, description, value, status, created_at, updated_at
		FROM foo
		WHERE id = $1
	`

	var f models.Foo
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Description, &f.Value, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &f, nil
}

func (r *fooRepository) List(ctx context.Context, limit int, offset int) ([]models.Foo, error) {
	const op = "repository.fooRepository.List"

	query := `
		SELECT id, name, description, value, status, created_at, updated_at
		FROM foo
		ORDER BY id
	`

	args := make([]any, 0, 2)
	argPos := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, limit)
		argPos++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var foos []models.Foo
	for rows.Next() {
		var f models.Foo
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Value, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		foos = append(foos, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return foos, nil
}

func (r *fooRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foo`).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository.fooRepository.Count: %w", err)
	}
	return total, nil
}

func (r *fooRepository) Update(ctx context.Context, id int64, req *models.UpdateFooRequest) error {
	const op = "repository.fooRepository.Update"

	setValues := []string{}
	args := []any{}
	argID := 1

	set := func(column string, v any) {
		setValues = append(setValues, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, v)
		argID++
	}

	if req.Name != "" {
		set("name", req.Name)
	}
	if req.Description != "" {
		set("description", req.Description)
	}
	if req.Value != nil {
		set("value", *req.Value)
	}
	if req.Status != nil {
		set("status", *req.Status)
	}

	if len(setValues) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}

	setValues = append(setValues, "updated_at = NOW() AT TIME ZONE 'UTC'")
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE foo SET %s WHERE id = $%d",
		strings.Join(setValues, ", "),
		argID,
	)

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

func (r *fooRepository) ToggleStatus(ctx context.Context, id int64) (bool, error) {
	var status bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE foo SET status = NOT status, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $1 RETURNING status`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("repository.fooRepository.ToggleStatus: %w", err)
	}
	return status, nil
}

func (r *fooRepository) Delete(ctx context.Context, id int64) error {
	const op = "repository.fooRepository.Delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM foo WHERE id = $1`, id)
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
