package service

import (
	"context"
	"testing"
	"time"

	accountserrors "deskbook/internal/accounts/errors"
	"deskbook/internal/accounts/validator"
	"deskbook/pkg/auth"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

// ────────────────────────────────────────────────
// Mock repositories
// ────────────────────────────────────────────────

type mockAccountRepository struct {
	createFunc        func(ctx context.Context, account *model.Account) error
	findByIDFunc      func(ctx context.Context, id string) (*model.Account, error)
	findByEmailFunc   func(ctx context.Context, email string) (*model.Account, error)
	updateProfileFunc func(ctx context.Context, id string, fullName, phoneNumber string) (*model.Account, error)
}

func (m *mockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, account)
	}
	account.ID = "64f000000000000000000001"
	return nil
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, accountserrors.ErrNotFound
}

func (m *mockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, accountserrors.ErrNotFound
}

func (m *mockAccountRepository) UpdateProfile(ctx context.Context, id string, fullName, phoneNumber string) (*model.Account, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, fullName, phoneNumber)
	}
	return nil, accountserrors.ErrNotFound
}

type mockCredentialRepository struct {
	createFunc      func(ctx context.Context, credential *model.Credential) error
	findByEmailFunc func(ctx context.Context, email string) (*model.Credential, error)
}

func (m *mockCredentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, credential)
	}
	credential.ID = "64f000000000000000000002"
	return nil
}

func (m *mockCredentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, accountserrors.ErrCredentialNotFound
}

type mockSessionRepository struct {
	created []model.Session
	deleted []string
}

func (m *mockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	m.created = append(m.created, *session)
	return nil
}

func (m *mockSessionRepository) FindByTokenID(ctx context.Context, tokenID string) (*model.Session, error) {
	for _, s := range m.created {
		if s.ID == tokenID {
			return &s, nil
		}
	}
	return nil, accountserrors.ErrSessionNotFound
}

func (m *mockSessionRepository) Delete(ctx context.Context, tokenID string) error {
	m.deleted = append(m.deleted, tokenID)
	for i, s := range m.created {
		if s.ID == tokenID {
			m.created = append(m.created[:i], m.created[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockSessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:                  log,
		ProfileRetryAttempts: 3,
		ProfileRetryStep:     time.Millisecond,
	}
}

func newTestService(
	accounts *mockAccountRepository,
	credentials *mockCredentialRepository,
	sessionRepo *mockSessionRepository,
) AccountService {
	cfg := testConfig()
	return NewAccountService(
		accounts,
		credentials,
		sessionRepo,
		auth.NewSessionManager("test-secret", time.Hour),
		validator.NewAccountValidator(cfg.Log),
		nil,
		cfg,
	)
}

// ────────────────────────────────────────────────
// Register
// ────────────────────────────────────────────────

func TestRegister_OwnerGetsAccountAndToken(t *testing.T) {
	sessionRepo := &mockSessionRepository{}
	svc := newTestService(&mockAccountRepository{}, &mockCredentialRepository{}, sessionRepo)

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "Owner@Example.com",
		Password: "s3cret-pass",
		Role:     model.RoleOwner,
		FullName: "  Dana   Field ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token")
	}
	if resp.Account.Role != model.RoleOwner {
		t.Errorf("expected role owner, got %q", resp.Account.Role)
	}
	if resp.Account.Email != "owner@example.com" {
		t.Errorf("expected normalized email, got %q", resp.Account.Email)
	}
	if resp.Account.FullName != "Dana Field" {
		t.Errorf("expected normalized name, got %q", resp.Account.FullName)
	}
	if len(sessionRepo.created) != 1 {
		t.Errorf("expected 1 session marker, got %d", len(sessionRepo.created))
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	credentials := &mockCredentialRepository{
		createFunc: func(ctx context.Context, credential *model.Credential) error {
			return accountserrors.ErrEmailTaken
		},
	}
	svc := newTestService(&mockAccountRepository{}, credentials, &mockSessionRepository{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "taken@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleSeeker,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
}

func TestRegister_ProfileInsertRetriedThenSucceeds(t *testing.T) {
	attempts := 0
	accounts := &mockAccountRepository{
		createFunc: func(ctx context.Context, account *model.Account) error {
			attempts++
			if attempts <= 2 {
				return accountserrors.ErrNotFound
			}
			account.ID = "64f000000000000000000001"
			return nil
		},
	}
	svc := newTestService(accounts, &mockCredentialRepository{}, &mockSessionRepository{})

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "retry@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if resp.Account.ID == "" {
		t.Error("expected account id to be set")
	}
}

func TestRegister_InvalidRoleRejectedBeforeAnyWrite(t *testing.T) {
	credentialWrites := 0
	credentials := &mockCredentialRepository{
		createFunc: func(ctx context.Context, credential *model.Credential) error {
			credentialWrites++
			return nil
		},
	}
	svc := newTestService(&mockAccountRepository{}, credentials, &mockSessionRepository{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "x@example.com",
		Password: "s3cret-pass",
		Role:     "admin",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if credentialWrites != 0 {
		t.Errorf("expected no credential writes, got %d", credentialWrites)
	}
}

// ────────────────────────────────────────────────
// Login
// ────────────────────────────────────────────────

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestLogin_ProfileFetchRetriedOnNotFound(t *testing.T) {
	hash := hashOf(t, "s3cret-pass")
	credentials := &mockCredentialRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Credential, error) {
			return &model.Credential{Email: email, PasswordHash: hash}, nil
		},
	}

	attempts := 0
	accounts := &mockAccountRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Account, error) {
			attempts++
			if attempts <= 2 {
				return nil, accountserrors.ErrNotFound
			}
			return &model.Account{ID: "64f000000000000000000001", Email: email, Role: model.RoleSeeker}, nil
		},
	}

	svc := newTestService(accounts, credentials, &mockSessionRepository{})
	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "late@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if resp.Account.ID != "64f000000000000000000001" {
		t.Errorf("unexpected account id %q", resp.Account.ID)
	}
}

func TestLogin_ProfileNeverAppearsSurfacesNotFound(t *testing.T) {
	hash := hashOf(t, "s3cret-pass")
	credentials := &mockCredentialRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Credential, error) {
			return &model.Credential{Email: email, PasswordHash: hash}, nil
		},
	}

	attempts := 0
	accounts := &mockAccountRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Account, error) {
			attempts++
			return nil, accountserrors.ErrNotFound
		},
	}

	svc := newTestService(accounts, credentials, &mockSessionRepository{})
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ghost@example.com",
		Password: "s3cret-pass",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", attempts)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	hash := hashOf(t, "right-password")
	credentials := &mockCredentialRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Credential, error) {
			return &model.Credential{Email: email, PasswordHash: hash}, nil
		},
	}

	svc := newTestService(&mockAccountRepository{}, credentials, &mockSessionRepository{})
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "x@example.com",
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Logout / Current
// ────────────────────────────────────────────────

func TestLogout_RevokesSession(t *testing.T) {
	sessionRepo := &mockSessionRepository{}
	accounts := &mockAccountRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Email: "x@example.com", Role: model.RoleSeeker}, nil
		},
	}
	svc := newTestService(accounts, &mockCredentialRepository{}, sessionRepo)

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "x@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Current(context.Background(), resp.Token); err != nil {
		t.Fatalf("expected token to resolve before logout: %v", err)
	}

	if err := svc.Logout(context.Background(), resp.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Current(context.Background(), resp.Token)
	if err == nil {
		t.Fatal("expected revoked session to be rejected")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", appErr.Code)
	}
}

// ────────────────────────────────────────────────
// UpdateProfile
// ────────────────────────────────────────────────

func TestUpdateProfile_RoleNeverChanges(t *testing.T) {
	var gotFullName, gotPhone string
	accounts := &mockAccountRepository{
		updateProfileFunc: func(ctx context.Context, id string, fullName, phoneNumber string) (*model.Account, error) {
			gotFullName, gotPhone = fullName, phoneNumber
			return &model.Account{
				ID:       id,
				Email:    "x@example.com",
				Role:     model.RoleSeeker,
				FullName: fullName,
			}, nil
		},
	}
	svc := newTestService(accounts, &mockCredentialRepository{}, &mockSessionRepository{})

	account, err := svc.UpdateProfile(context.Background(), "64f000000000000000000001", &model.ProfileUpdate{
		FullName: "New Name",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFullName != "New Name" || gotPhone != "" {
		t.Errorf("unexpected update fields: name=%q phone=%q", gotFullName, gotPhone)
	}
	if account.Role != model.RoleSeeker {
		t.Errorf("role changed to %q", account.Role)
	}
}

func TestUpdateProfile_EmptyUpdateRejected(t *testing.T) {
	svc := newTestService(&mockAccountRepository{}, &mockCredentialRepository{}, &mockSessionRepository{})

	_, err := svc.UpdateProfile(context.Background(), "64f000000000000000000001", &model.ProfileUpdate{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}
