package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"restkit/internal/models"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.PersonalAccessToken) error
	GetByCode(ctx context.Context, code string) (*models.PersonalAccessToken, error)
	GetBySecret(ctx context.Context, secret string) (*models.PersonalAccessToken, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*models.PersonalAccessToken, error)
	DeleteBySubject(ctx context.Context, subjectID int64, subjectType string) (int64, error)
	ListBySubject(ctx context.Context, subjectID int64, subjectType string) ([]models.PersonalAccessToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

const tokenColumns = `id, tokenable_type, tokenable_id, name, secret, token, abilities, last_used_at, expires_at, created_at`

func (r *tokenRepository) Create(ctx context.Context, t *models.PersonalAccessToken) error {
	const op = "repository.tokenRepository.Create"

	query := `
		INSERT INTO personal_access_token (tokenable_type, tokenable_id, name, secret, token, abilities, last_used_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		t.SubjectType,
		t.SubjectID,
		nullString(t.Name),
		t.Secret,
		nullString(t.Code),
		pq.Array(t.Abilities),
		t.LastUsedAt,
		t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *tokenRepository) GetByCode(ctx context.Context, code string) (*models.PersonalAccessToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM personal_access_token WHERE token = $1`
	return r.getOne(ctx, "repository.tokenRepository.GetByCode", query, code)
}

func (r *tokenRepository) GetBySecret(ctx context.Context, secret string) (*models.PersonalAccessToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM personal_access_token WHERE secret = $1 ORDER BY id DESC LIMIT 1`
	return r.getOne(ctx, "repository.tokenRepository.GetBySecret", query, secret)
}

// GetByCodeForUpdate locks the row until the surrounding transaction ends.
func (r *tokenRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.PersonalAccessToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM personal_access_token WHERE token = $1 FOR UPDATE`
	return r.getOne(ctx, "repository.tokenRepository.GetByCodeForUpdate", query, code)
}

func (r *tokenRepository) getOne(ctx context.Context, op, query string, arg any) (*models.PersonalAccessToken, error) {
	t, err := scanToken(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func (r *tokenRepository) DeleteBySubject(ctx context.Context, subjectID int64, subjectType string) (int64, error) {
	const op = "repository.tokenRepository.DeleteBySubject"

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM personal_access_token WHERE tokenable_id = $1 AND tokenable_type = $2`,
		subjectID, subjectType,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *tokenRepository) ListBySubject(ctx context.Context, subjectID int64, subjectType string) ([]models.PersonalAccessToken, error) {
	const op = "repository.tokenRepository.ListBySubject"

	query := `
		SELECT id, tokenable_type, tokenable_id, name, abilities, last_used_at, expires_at, created_at
		FROM personal_access_token
		WHERE tokenable_id = $1 AND tokenable_type = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, subjectType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tokens []models.PersonalAccessToken
	for rows.Next() {
		var (
			t      models.PersonalAccessToken
			name   sql.NullString
			used   sql.NullTime
			scopes []string
		)
		if err := rows.Scan(&t.ID, &t.SubjectType, &t.SubjectID, &name, pq.Array(&scopes), &used, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Name = name.String
		t.Abilities = scopes
		if used.Valid {
			t.LastUsedAt = &used.Time
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tokens, nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "repository.tokenRepository.DeleteExpired"

	res, err := r.db.ExecContext(ctx, `DELETE FROM personal_access_token WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func scanToken(row *sql.Row) (*models.PersonalAccessToken, error) {
	var (
		t      models.PersonalAccessToken
		name   sql.NullString
		code   sql.NullString
		used   sql.NullTime
		scopes []string
	)
	err := row.Scan(
		&t.ID,
		&t.SubjectType,
		&t.SubjectID,
		&name,
		&t.Secret,
		&code,
		pq.Array(&scopes),
		&used,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Name = name.String
	t.Code = code.String
	t.Abilities = scopes
	if used.Valid {
		t.LastUsedAt = &used.Time
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
