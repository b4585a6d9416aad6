package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ispdesk/ticket-system/internal/auth"
	"github.com/ispdesk/ticket-system/internal/config"
	"github.com/ispdesk/ticket-system/internal/domain"
	"github.com/ispdesk/ticket-system/internal/repository"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

type fakeResetRepo struct {
	byToken map[string]*repository.PasswordResetToken
	seq     int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byToken: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	r.seq++
	token.ID = "reset-" + token.Token[:8]
	token.CreatedAt = time.Now()
	r.byToken[token.Token] = token
	return nil
}

func (r *fakeResetRepo) GetByToken(ctx context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := r.byToken[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (r *fakeResetRepo) MarkUsed(ctx context.Context, id string) error {
	for _, token := range r.byToken {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	users := &fakeUserRepo{byID: map[string]*domain.User{}}
	resets := newFakeResetRepo()
	svc := NewAuthService(AuthDependencies{
		UserRepo:  users,
		ResetRepo: resets,
		Tokens:    auth.NewTokenManager("test-secret", 60),
		Config: config.AuthConfig{
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
	})
	return svc, users, resets
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	svc, users, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Ana Souza", "Ana@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("role = %s, want CUSTOMER", user.Role)
	}
	if !user.Active {
		t.Error("new account not active")
	}
	if user.PasswordHash == "hunter2hunter2" || user.PasswordHash == "" {
		t.Error("password not hashed")
	}
	if err := auth.ComparePassword(user.PasswordHash, "hunter2hunter2"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if len(users.byID) != 1 {
		t.Errorf("stored users = %d", len(users.byID))
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "Other Ana", "ANA@example.com", "different-pass")
	if err == nil {
		t.Fatal("expected conflict")
	}
	if apperrors.ToDomainError(err).Code != "CONFLICT" {
		t.Errorf("error code = %s", apperrors.ToDomainError(err).Code)
	}
}

// A registration that loses the insert race to a concurrent request hits the
// unique constraint instead of the pre-check. It must still read as a conflict.
func TestRegisterMapsUniqueViolationToConflict(t *testing.T) {
	svc, users, _ := newAuthFixture()
	users.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")
	if err == nil {
		t.Fatal("expected conflict")
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != "CONFLICT" {
		t.Errorf("error code = %s, want CONFLICT", domainErr.Code)
	}
}

func TestLoginIssuesTokenAndStampsLastLogin(t *testing.T) {
	svc, users, _ := newAuthFixture()
	registered, _ := svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")

	result, err := svc.Login(context.Background(), "ana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Error("empty token")
	}
	if result.User.LastLogin == nil {
		t.Error("last login not stamped")
	}
	if stored := users.byID[registered.ID]; stored.LastLogin == nil {
		t.Error("last login not persisted")
	}
}

func TestLoginRejectsWrongPasswordAndDisabledAccount(t *testing.T) {
	svc, users, _ := newAuthFixture()
	registered, _ := svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")

	if _, err := svc.Login(context.Background(), "ana@example.com", "wrong"); err == nil {
		t.Fatal("expected rejection for wrong password")
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); err == nil {
		t.Fatal("expected rejection for unknown email")
	}

	users.byID[registered.ID].Active = false
	_, err := svc.Login(context.Background(), "ana@example.com", "hunter2hunter2")
	if err == nil {
		t.Fatal("expected rejection for disabled account")
	}
	if apperrors.ToDomainError(err).Code != "UNAUTHORIZED" {
		t.Errorf("error code = %s", apperrors.ToDomainError(err).Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, _ = svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")

	token, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" {
		t.Fatal("no token issued for existing account")
	}

	// Unknown accounts yield no token but no error either.
	ghost, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil || ghost != "" {
		t.Errorf("unknown account: token=%q err=%v", ghost, err)
	}

	if err := svc.ConfirmPasswordReset(context.Background(), token, "new-password-123"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "new-password-123"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "hunter2hunter2"); err == nil {
		t.Error("old password still accepted")
	}

	// Tokens are single use.
	if err := svc.ConfirmPasswordReset(context.Background(), token, "another-pass-456"); err == nil {
		t.Error("reset token accepted twice")
	}
}

func TestConfirmPasswordResetRejectsExpiredToken(t *testing.T) {
	svc, _, resets := newAuthFixture()
	_, _ = svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")

	token, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	resets.byToken[token].ExpiresAt = time.Now().Add(-time.Minute)

	if err := svc.ConfirmPasswordReset(context.Background(), token, "new-password-123"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, users, _ := newAuthFixture()
	registered, _ := svc.Register(context.Background(), "Ana", "ana@example.com", "hunter2hunter2")
	user := users.byID[registered.ID]

	if err := svc.ChangePassword(context.Background(), user, "wrong", "new-password-123"); err == nil {
		t.Fatal("wrong current password accepted")
	}
	if err := svc.ChangePassword(context.Background(), user, "hunter2hunter2", "new-password-123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "new-password-123"); err != nil {
		t.Errorf("login with changed password: %v", err)
	}
}
