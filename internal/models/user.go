package models

import (
	"strings"
	"time"
)

// UserRole represents the closed set of roles known to the system. Roles are
// compared by exact equality everywhere; there is no fuzzy matching.
type UserRole string

const (
	RoleDirector  UserRole = "DIRECTOR"
	RoleProfessor UserRole = "PROFESSOR"
	RoleStudent   UserRole = "STUDENT"
	RoleAdmin     UserRole = "ADMIN"
)

// ParseRole normalises a client-supplied role name into the closed enum.
// Unknown names return false; there is deliberately no substring matching.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDirector, RoleProfessor, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table. Accounts are
// deactivated rather than deleted, and the role never changes after creation.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName concatenates the display name parts.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
