package domain

import "time"

// UserRole enumerates privilege levels. IT_STAFF and ADMIN are staff-privileged.
type UserRole string

const (
	RoleEmployee UserRole = "EMPLOYEE"
	RoleITStaff  UserRole = "IT_STAFF"
	RoleAdmin    UserRole = "ADMIN"
)

// User is an employee or IT operator account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff reports whether the user may triage incidents.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleITStaff || u.Role == RoleAdmin)
}

// IsAdmin reports superuser privileges.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is an entry of the active session registry.
type Session struct {
	Key       string
	UserID    int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
