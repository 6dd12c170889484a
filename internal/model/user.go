package model

import (
	"strings"
	"time"
)

const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// MinPasswordLength applies to every password set through the API.
const MinPasswordLength = 8

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanLogin reports whether the account may authenticate.
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// UserInput is the create/update form. Password is required on create and
// optional on update.
type UserInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`
	Status   string `json:"status"`
	Password string `json:"password"`
}

// Normalize trims fields, lower-cases the email and defaults the status.
func (in *UserInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Status == "" {
		in.Status = UserStatusActive
	}
}

// Validate checks the form; creating selects whether a password is required.
func (in *UserInput) Validate(creating bool) error {
	err := firstError(
		required("name", in.Name),
		validEmail("email", in.Email),
		oneOf("role", in.Role, "admin", "manager", "viewer"),
		oneOf("status", in.Status, UserStatusActive, UserStatusInactive, UserStatusSuspended),
	)
	if err != nil {
		return err
	}
	if creating || in.Password != "" {
		return ValidatePassword("password", in.Password)
	}
	return nil
}

// ValidatePassword enforces the password policy.
func ValidatePassword(field, password string) error {
	if len(password) < MinPasswordLength {
		return invalid(field, "must be at least 8 characters")
	}
	return nil
}

// Apply copies the form onto u. The password is hashed by the caller.
func (in *UserInput) Apply(u *User) {
	u.Name = in.Name
	u.Email = in.Email
	u.Phone = in.Phone
	u.Role = in.Role
	u.Status = in.Status
}
