// Package ledger issues, verifies and invalidates the personal access
// tokens used by the password-reset and email-change flows.
package ledger

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"restkit/internal/models"
	"restkit/internal/repository"
)

const DefaultTTL = time.Hour

type Ledger struct {
	db     *sql.DB
	tokens repository.TokenRepository
	log    *slog.Logger
	now    func() time.Time
	ttl    time.Duration
}

type Option func(*Ledger)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithTTL sets the horizon applied when IssueParams.ExpiresAt is zero.
func WithTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func New(db *sql.DB, log *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		tokens: repository.NewTokenRepository(db),
		log:    log,
		now:    time.Now,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type IssueParams struct {
	Purpose    Purpose
	SubjectID  int64
	Name       string
	Secret     string
	Code       string
	Abilities  []string
	LastUsedAt *time.Time
	ExpiresAt  time.Time
}

// Issue stores a token exactly as supplied. A code collision returns
// ErrDuplicateCode and the caller is expected to retry with a fresh code.
func (l *Ledger) Issue(ctx context.Context, p IssueParams) (*models.PersonalAccessToken, error) {
	const op = "ledger.Issue"

	log := l.log.With(slog.String("op", op))

	if !p.Purpose.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidPurpose, p.Purpose)
	}
	if p.Secret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}

	expiresAt := p.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = l.now().Add(l.ttl)
	}

	lastUsedAt := p.LastUsedAt
	if lastUsedAt != nil {
		utc := lastUsedAt.UTC()
		lastUsedAt = &utc
	}

	tok := &models.PersonalAccessToken{
		SubjectType: p.Purpose.String(),
		SubjectID:   p.SubjectID,
		Name:        p.Name,
		Secret:      p.Secret,
		Code:        p.Code,
		Abilities:   p.Abilities,
		LastUsedAt:  lastUsedAt,
		ExpiresAt:   expiresAt.UTC(),
	}

	if err := l.tokens.Create(ctx, tok); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("token code collision", slog.Int64("subject_id", p.SubjectID))
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateCode)
		}
		log.Error("failed to store token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("token issued",
		slog.Int64("token_id", tok.ID),
		slog.Int64("subject_id", tok.SubjectID),
		slog.String("purpose", tok.SubjectType),
	)
	return tok, nil
}

// VerifyByCode returns the full token, secret included. Expired tokens are
// reported but left in place.
func (l *Ledger) VerifyByCode(ctx context.Context, code string) (*models.PersonalAccessToken, error) {
	const op = "ledger.VerifyByCode"

	if code == "" {
		return nil, ErrTokenNotFound
	}
	tok, err := l.tokens.GetByCode(ctx, code)
	return l.checkFound(op, tok, err)
}

func (l *Ledger) VerifyBySecret(ctx context.Context, secret string) (*models.PersonalAccessToken, error) {
	const op = "ledger.VerifyBySecret"

	if secret == "" {
		return nil, ErrTokenNotFound
	}
	tok, err := l.tokens.GetBySecret(ctx, secret)
	return l.checkFound(op, tok, err)
}

func (l *Ledger) checkFound(op string, tok *models.PersonalAccessToken, err error) (*models.PersonalAccessToken, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tok.IsExpired(l.now()) {
		return nil, ErrTokenExpired
	}
	return tok, nil
}

// InvalidateAll deletes every token of the subject for the purpose in a
// single statement. Zero deletions yield ErrNoTokens.
func (l *Ledger) InvalidateAll(ctx context.Context, subjectID int64, purpose Purpose) (int64, error) {
	const op = "ledger.InvalidateAll"

	if !purpose.Valid() {
		return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidPurpose, purpose)
	}

	n, err := l.tokens.DeleteBySubject(ctx, subjectID, purpose.String())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return 0, ErrNoTokens
	}

	l.log.Info("tokens invalidated",
		slog.String("op", op),
		slog.Int64("subject_id", subjectID),
		slog.String("purpose", purpose.String()),
		slog.Int64("count", n),
	)
	return n, nil
}

// GuardedFunc performs the mutation a token authorises. It must use tx for
// every write so the mutation commits or rolls back with the invalidation.
type GuardedFunc func(ctx context.Context, tx *sql.Tx, tok *models.PersonalAccessToken) error

// Redeem verifies code and secret for the purpose, runs fn and invalidates
// all of the subject's tokens for that purpose in one transaction. A token
// minted for another purpose is reported as ErrTokenNotFound.
func (l *Ledger) Redeem(ctx context.Context, purpose Purpose, code, secret string, fn GuardedFunc) (err error) {
	const op = "ledger.Redeem"

	log := l.log.With(slog.String("op", op), slog.String("purpose", purpose.String()))

	if !purpose.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidPurpose, purpose)
	}
	if code == "" {
		return ErrTokenNotFound
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tokens := repository.NewTokenRepository(tx)

	tok, err := tokens.GetByCodeForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tok.SubjectType != purpose.String() {
		log.Warn("token presented to another flow", slog.Int64("token_id", tok.ID))
		return ErrTokenNotFound
	}
	if tok.IsExpired(l.now()) {
		return ErrTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(tok.Secret), []byte(secret)) != 1 {
		return ErrSecretMismatch
	}

	if err = fn(ctx, tx, tok); err != nil {
		return err
	}

	n, err := tokens.DeleteBySubject(ctx, tok.SubjectID, tok.SubjectType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("token redeemed",
		slog.Int64("token_id", tok.ID),
		slog.Int64("subject_id", tok.SubjectID),
		slog.Int64("invalidated", n),
	)
	return nil
}

// ListBySubject returns the subject's tokens for the purpose without secrets.
func (l *Ledger) ListBySubject(ctx context.Context, subjectID int64, purpose Purpose) ([]models.PersonalAccessToken, error) {
	const op = "ledger.ListBySubject"

	if !purpose.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidPurpose, purpose)
	}
	tokens, err := l.tokens.ListBySubject(ctx, subjectID, purpose.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tokens, nil
}
