package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"restkit/internal/ledger"
	"restkit/internal/models"
	"restkit/internal/repository"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("current password is incorrect")
	ErrEmailInUse         = errors.New("email already in use")
	ErrEmailMismatch      = errors.New("email does not match the pending change")
)

const issueAttempts = 3

type AccountConfig struct {
	JWTSecret  string
	JWTTTL     time.Duration
	CodeLength int
	TokenTTL   time.Duration
}

// IssuedCode is what a flow hands out after minting a token.
type IssuedCode struct {
	Code      string    `json:"code"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccountService struct {
	users  repository.UserRepository
	ledger *ledger.Ledger
	mailer *Mailer
	cfg    AccountConfig
	log    *slog.Logger
	now    func() time.Time
}

func NewAccountService(db *sql.DB, l *ledger.Ledger, mailer *Mailer, cfg AccountConfig, log *slog.Logger) *AccountService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 5
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = ledger.DefaultTTL
	}
	return &AccountService{
		users:  repository.NewUserRepository(db),
		ledger: l,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	const op = "services.AccountService.Register"

	log := s.log.With(slog.String("op", op), slog.String("email", req.Email))

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Token:        uuid.NewString(),
		Status:       true,
		Provider:     "local",
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", u.ID))
	s.mailer.SendWelcome(ctx, u)
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	const op = "services.AccountService.Login"

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Status {
		return nil, ErrUserInactive
	}

	signed, err := SignAccessToken(s.cfg.JWTSecret, u.ID, u.Email, DefaultScopes, s.cfg.JWTTTL, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.LoginResponse{
		User:       *u,
		EncodedJWT: signed,
		ExpiresIn:  int64(s.cfg.JWTTTL.Seconds()),
	}, nil
}

func (s *AccountService) Find(ctx context.Context, id int64) (*models.User, error) {
	return s.lookup("services.AccountService.Find", func() (*models.User, error) {
		return s.users.GetByID(ctx, id)
	})
}

func (s *AccountService) FindByToken(ctx context.Context, token string) (*models.User, error) {
	return s.lookup("services.AccountService.FindByToken", func() (*models.User, error) {
		return s.users.GetByToken(ctx, token)
	})
}

func (s *AccountService) lookup(op string, get func() (*models.User, error)) (*models.User, error) {
	u, err := get()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *AccountService) Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*models.User, error) {
	const op = "services.AccountService.Update"

	if err := s.users.UpdateProfile(ctx, id, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Find(ctx, id)
}

func (s *AccountService) ToggleStatus(ctx context.Context, id int64) (bool, error) {
	const op = "services.AccountService.ToggleStatus"

	status, err := s.users.ToggleStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return status, nil
}

// SendForgotPasswordCode mints a forgot_password token and emails the code.
// Unknown emails yield ErrUserNotFound; callers must not reveal it.
func (s *AccountService) SendForgotPasswordCode(ctx context.Context, email string) (*IssuedCode, error) {
	const op = "services.AccountService.SendForgotPasswordCode"

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	issued, err := s.issue(ctx, ledger.PurposeForgotPassword, u.ID, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mailer.SendPasswordReset(ctx, u, issued.Code, issued.Secret)
	return issued, nil
}

// ChangePassword redeems a forgot_password token. The current password is
// still required.
func (s *AccountService) ChangePassword(ctx context.Context, req *models.UpdatePasswordRequest) error {
	const op = "services.AccountService.ChangePassword"

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.ledger.Redeem(ctx, ledger.PurposeForgotPassword, req.Code, req.Secret,
		func(ctx context.Context, tx *sql.Tx, tok *models.PersonalAccessToken) error {
			users := repository.NewUserRepository(tx)

			u, err := users.GetByID(ctx, tok.SubjectID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
				return ErrInvalidPassword
			}
			return users.UpdatePasswordHash(ctx, u.ID, string(hash))
		})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password changed", slog.String("op", op))
	return nil
}

// SendChangeEmailCode mints a change_email token carrying the pending address
// as its display name and sends the code to that address.
func (s *AccountService) SendChangeEmailCode(ctx context.Context, userID int64, newEmail string) (*IssuedCode, error) {
	const op = "services.AccountService.SendChangeEmailCode"

	newEmail = strings.ToLower(newEmail)

	u, err := s.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, newEmail); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	issued, err := s.issue(ctx, ledger.PurposeChangeEmail, u.ID, newEmail)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mailer.SendEmailChangeConfirmation(ctx, u, newEmail, issued.Code, issued.Secret)
	return issued, nil
}

func (s *AccountService) ChangeEmail(ctx context.Context, req *models.ChangeEmailRequest) error {
	const op = "services.AccountService.ChangeEmail"

	err := s.ledger.Redeem(ctx, ledger.PurposeChangeEmail, req.Code, req.Secret,
		func(ctx context.Context, tx *sql.Tx, tok *models.PersonalAccessToken) error {
			if tok.Name == "" || !strings.EqualFold(tok.Name, req.NewEmail) {
				return ErrEmailMismatch
			}
			err := repository.NewUserRepository(tx).UpdateEmail(ctx, tok.SubjectID, tok.Name)
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return ErrEmailInUse
			case errors.Is(err, repository.ErrNotFound):
				return ErrUserNotFound
			}
			return err
		})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email changed", slog.String("op", op))
	return nil
}

func (s *AccountService) issue(ctx context.Context, purpose ledger.Purpose, subjectID int64, name string) (*IssuedCode, error) {
	var lastErr error
	for attempt := 0; attempt < issueAttempts; attempt++ {
		code, err := ledger.GenerateCode(s.cfg.CodeLength)
		if err != nil {
			return nil, err
		}

		now := s.now().UTC()
		tok, err := s.ledger.Issue(ctx, ledger.IssueParams{
			Purpose:    purpose,
			SubjectID:  subjectID,
			Name:       name,
			Secret:     ledger.GenerateSecret(),
			Code:       code,
			LastUsedAt: &now,
			ExpiresAt:  now.Add(s.cfg.TokenTTL),
		})
		if err == nil {
			return &IssuedCode{Code: tok.Code, Secret: tok.Secret, ExpiresAt: tok.ExpiresAt}, nil
		}
		if !errors.Is(err, ledger.ErrDuplicateCode) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
