package service

import (
	"context"
	"errors"

	accountserrors "deskbook/internal/accounts/errors"
	"deskbook/internal/accounts/repository"
	"deskbook/internal/accounts/validator"
	"deskbook/pkg/auth"
	"deskbook/pkg/cdc"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/model"
	"deskbook/pkg/retry"
	"deskbook/pkg/sanitizer"

	"golang.org/x/crypto/bcrypt"
)

type AccountService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, accountID string, update *model.ProfileUpdate) (*model.Account, error)
	Current(ctx context.Context, token string) (*model.Account, error)
}

type accountService struct {
	accounts    repository.AccountRepository
	credentials repository.CredentialRepository
	sessionRepo repository.SessionRepository
	sessions    *auth.SessionManager
	validator   *validator.AccountValidator
	changes     *cdc.Publisher
	policy      retry.Policy
	cfg         *config.Config
}

func NewAccountService(
	accounts repository.AccountRepository,
	credentials repository.CredentialRepository,
	sessionRepo repository.SessionRepository,
	sessions *auth.SessionManager,
	validator *validator.AccountValidator,
	changes *cdc.Publisher,
	cfg *config.Config,
) AccountService {
	return &accountService{
		accounts:    accounts,
		credentials: credentials,
		sessionRepo: sessionRepo,
		sessions:    sessions,
		validator:   validator,
		changes:     changes,
		policy:      retry.Policy{Delays: cfg.RetryDelays()},
		cfg:         cfg,
	}
}

// Register creates the credential first, then the profile record. The profile
// insert is retried on transient failure so a registration never succeeds
// half-way silently; if the profile still cannot be written the error
// surfaces and the credential stays orphaned until re-registration fails on
// the duplicate email.
func (s *accountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	s.sanitizeRegister(req)
	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	credential := &model.Credential{
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, accountserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create credential", "email", req.Email, "error", err)
		return nil, apperrors.Internal("Failed to register account", err)
	}

	account := &model.Account{
		Email:       req.Email,
		Role:        req.Role,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	}
	err = s.policy.Do(ctx, func(ctx context.Context) error {
		return s.accounts.Create(ctx, account)
	}, func(err error) bool {
		return !errors.Is(err, accountserrors.ErrEmailTaken)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create account profile after retries",
			"email", req.Email,
			"attempts", s.policy.MaxAttempts(),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create account profile", err)
	}

	s.publish(ctx, cdc.EventInsert, account)

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Account registered",
		"id", account.ID,
		"role", account.Role,
	)
	return &model.AuthResponse{Account: account, Token: token}, nil
}

// Login verifies the credential and resolves the profile. The profile fetch
// is retried because a profile written moments ago on another connection may
// not be visible yet.
func (s *accountService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		s.cfg.Log.Warn("Login validation failed", "error", err)
		return nil, apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	credential, err := s.credentials.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, accountserrors.ErrCredentialNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up credential", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	var account *model.Account
	err = s.policy.Do(ctx, func(ctx context.Context) error {
		account, err = s.accounts.FindByEmail(ctx, req.Email)
		return err
	}, func(err error) bool {
		return errors.Is(err, accountserrors.ErrNotFound)
	})
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			s.cfg.Log.Warn("Credential exists but profile never appeared",
				"email", req.Email,
				"attempts", s.policy.MaxAttempts(),
			)
			return nil, apperrors.NotFound("Account profile")
		}
		s.cfg.Log.Error("Failed to fetch account profile", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Account logged in", "id", account.ID)
	return &model.AuthResponse{Account: account, Token: token}, nil
}

// Logout deletes the session marker for the token. Unknown or already
// revoked tokens are not an error.
func (s *accountService) Logout(ctx context.Context, token string) error {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired session token")
	}

	if err := s.sessionRepo.Delete(ctx, claims.ID); err != nil {
		s.cfg.Log.Error("Failed to delete session", "account_id", claims.AccountID, "error", err)
		return apperrors.Internal("Failed to log out", err)
	}

	s.cfg.Log.Info("Account logged out", "id", claims.AccountID)
	return nil
}

// UpdateProfile writes the allowed fields remotely. Role and email never
// change here regardless of what the caller sends.
func (s *accountService) UpdateProfile(ctx context.Context, accountID string, update *model.ProfileUpdate) (*model.Account, error) {
	if accountID == "" {
		return nil, apperrors.InvalidInput("Account ID cannot be empty")
	}

	update.FullName = sanitizer.NormalizeName(update.FullName)
	update.PhoneNumber = sanitizer.NormalizePhone(update.PhoneNumber)
	if err := s.validator.ValidateProfileUpdate(update); err != nil {
		s.cfg.Log.Warn("Profile update validation failed", "id", accountID, "error", err)
		return nil, apperrors.Validation("Invalid profile update", map[string]any{"error": err.Error()})
	}

	account, err := s.accounts.UpdateProfile(ctx, accountID, update.FullName, update.PhoneNumber)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Account", accountID)
		}
		if errors.Is(err, accountserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid account ID format")
		}
		s.cfg.Log.Error("Failed to update profile", "id", accountID, "error", err)
		return nil, apperrors.Internal("Failed to update profile", err)
	}

	s.publish(ctx, cdc.EventUpdate, account)

	s.cfg.Log.Info("Profile updated", "id", accountID)
	return account, nil
}

// Current resolves the account behind a session token, rejecting tokens
// whose marker was revoked by logout.
func (s *accountService) Current(ctx context.Context, token string) (*model.Account, error) {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired session token")
	}

	if _, err := s.sessionRepo.FindByTokenID(ctx, claims.ID); err != nil {
		if errors.Is(err, accountserrors.ErrSessionNotFound) {
			return nil, apperrors.Unauthorized("Session has been revoked")
		}
		s.cfg.Log.Error("Failed to check session", "account_id", claims.AccountID, "error", err)
		return nil, apperrors.Internal("Failed to resolve session", err)
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Account", claims.AccountID)
		}
		s.cfg.Log.Error("Failed to fetch current account", "id", claims.AccountID, "error", err)
		return nil, apperrors.Internal("Failed to resolve session", err)
	}

	return account, nil
}

// --- Helpers ---

func (s *accountService) openSession(ctx context.Context, account *model.Account) (string, error) {
	token, err := s.sessions.Issue(account.ID, account.Role)
	if err != nil {
		s.cfg.Log.Error("Failed to issue session token", "id", account.ID, "error", err)
		return "", apperrors.Internal("Failed to open session", err)
	}

	claims, err := s.sessions.Verify(token)
	if err != nil {
		return "", apperrors.Internal("Failed to open session", err)
	}

	if err := s.sessionRepo.Create(ctx, &model.Session{
		ID:        claims.ID,
		AccountID: account.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		s.cfg.Log.Error("Failed to store session marker", "id", account.ID, "error", err)
		return "", apperrors.Internal("Failed to open session", err)
	}

	return token, nil
}

func (s *accountService) sanitizeRegister(req *model.RegisterRequest) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.FullName = sanitizer.NormalizeName(req.FullName)
	req.PhoneNumber = sanitizer.NormalizePhone(req.PhoneNumber)
}

// publish emits a users change event. The feed is best-effort; failures are
// logged and the write stands.
func (s *accountService) publish(ctx context.Context, eventType string, account *model.Account) {
	if s.changes == nil {
		return
	}

	ev, err := cdc.NewChangeEvent(cdc.TableUsers, eventType, account.ID, account)
	if err != nil {
		s.cfg.Log.Error("Failed to build account change event", "id", account.ID, "error", err)
		return
	}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.cfg.Log.Error("Failed to publish account change event", "id", account.ID, "error", err)
	}
}
