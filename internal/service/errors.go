package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidMfaCode     = errors.New("invalid verification code")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
)

// AccountLockedError carries the minutes a caller must wait. It matches ErrAccountLocked.
type AccountLockedError struct {
	Minutes int
	// JustLocked is set on the failure that triggered the lockout.
	JustLocked bool
}

func (e *AccountLockedError) Error() string {
	if e.JustLocked {
		return fmt.Sprintf("Account is locked due to too many failed attempts. Try again in %d minutes.", e.Minutes)
	}
	return fmt.Sprintf("Account is locked. Try again in %d minutes.", e.Minutes)
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

var (
	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email is already in use", ErrConflict)
)

// ValidationError carries a message safe to show to the caller. It matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
