package dto

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/ispdesk/ticket-system/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns per-field messages for an invalid registration.
func (r RegisterRequest) Validate() []string {
	var errs []string
	if n := len(r.Name); n < 2 || n > 100 {
		errs = append(errs, "name must be between 2 and 100 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, "email must be a valid address")
	}
	if len(r.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateUserRequest is the admin provisioning payload.
type CreateUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// Validate returns per-field messages for an invalid provisioning payload.
func (r CreateUserRequest) Validate() []string {
	errs := RegisterRequest{Name: r.Name, Email: r.Email, Password: r.Password}.Validate()
	if !domain.ValidRole(r.Role) {
		errs = append(errs, fmt.Sprintf("role %q is not recognized", r.Role))
	}
	return errs
}

// UpdateUserRequest payload. Absent fields leave the user untouched.
type UpdateUserRequest struct {
	Name   *string          `json:"name"`
	Email  *string          `json:"email"`
	Role   *domain.UserRole `json:"role"`
	Active *bool            `json:"active"`
}

// UserResponse is the public user representation. It never carries the
// password hash.
type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	Active    bool            `json:"active"`
	LastLogin *time.Time      `json:"last_login"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewUserResponse maps a user to its public representation.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
