package service

import (
	"context"
	"testing"

	"github.com/ispdesk/ticket-system/internal/domain"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

func newUserFixture() (*UserService, *fakeUserRepo) {
	users := &fakeUserRepo{byID: map[string]*domain.User{}}
	return NewUserService(users, 4), users
}

func TestCreateUserWithRole(t *testing.T) {
	svc, _ := newUserFixture()

	user, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name:     "Bruno Lima",
		Email:    "Bruno@Example.com",
		Password: "strong-password",
		Role:     domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != domain.RoleTechnician {
		t.Errorf("role = %s", user.Role)
	}
	if user.Email != "bruno@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.PasswordHash == "strong-password" {
		t.Error("password stored in plaintext")
	}
}

func TestCreateUserRejectsUnknownRoleAndDuplicates(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name: "Bruno", Email: "bruno@example.com", Password: "strong-password", Role: "SUPERVISOR",
	})
	if err == nil {
		t.Fatal("unknown role accepted")
	}

	if _, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name: "Bruno", Email: "bruno@example.com", Password: "strong-password", Role: domain.RoleTechnician,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err = svc.CreateUser(context.Background(), UserCreateInput{
		Name: "Other", Email: "bruno@example.com", Password: "other-password", Role: domain.RoleCustomer,
	})
	if err == nil {
		t.Fatal("duplicate email accepted")
	}
	if apperrors.ToDomainError(err).Code != "CONFLICT" {
		t.Errorf("error code = %s", apperrors.ToDomainError(err).Code)
	}
}

func TestUpdateUserPartialFields(t *testing.T) {
	svc, users := newUserFixture()
	created, _ := svc.CreateUser(context.Background(), UserCreateInput{
		Name: "Bruno", Email: "bruno@example.com", Password: "strong-password", Role: domain.RoleTechnician,
	})

	inactive := false
	admin := domain.RoleAdmin
	updated, err := svc.UpdateUser(context.Background(), created.ID, UserUpdateInput{
		Role:   &admin,
		Active: &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Role != domain.RoleAdmin || updated.Active {
		t.Errorf("updated = %+v", updated)
	}
	// Untouched fields survive.
	if updated.Name != "Bruno" || updated.Email != "bruno@example.com" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if stored := users.byID[created.ID]; stored.Role != domain.RoleAdmin {
		t.Error("update not persisted")
	}
}

func TestUpdateUserUnknownID(t *testing.T) {
	svc, _ := newUserFixture()
	name := "Ghost"
	_, err := svc.UpdateUser(context.Background(), "missing", UserUpdateInput{Name: &name})
	if err == nil {
		t.Fatal("expected not found")
	}
	if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Errorf("error code = %s", apperrors.ToDomainError(err).Code)
	}
}
