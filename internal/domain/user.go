package domain

import "time"

// UserRole enumerates the roles a user can hold.
type UserRole string

const (
	RoleCustomer   UserRole = "CUSTOMER"
	RoleTechnician UserRole = "TECHNICIAN"
	RoleAdmin      UserRole = "ADMIN"
)

// ValidRole reports whether r is a recognized role.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleCustomer, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// Staff reports whether the role may triage tickets.
func (r UserRole) Staff() bool {
	return r == RoleTechnician || r == RoleAdmin
}

// User models customers, technicians and administrators alike; the role
// field decides what they may do.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
