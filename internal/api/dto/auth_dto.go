package dto

import "time"

// RegisterRequest payload for self-service signup.
type RegisterRequest struct {
	Username string `json:"username" validate:"notblank,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
