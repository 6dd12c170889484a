package service

import (
	"errors"

	"malladmin/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("too many failed login attempts, try again later")
	ErrAccountDisabled    = errors.New("account is not active")
	ErrUnauthorized       = errors.New("invalid or expired session")
	ErrForbidden          = errors.New("forbidden")

	ErrNotFound = repository.ErrNotFound
	ErrConflict = repository.ErrConflict
)
