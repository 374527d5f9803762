package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrEmailTaken       = errors.New("email already in use")
	ErrAlreadyRevoked   = errors.New("token already revoked")
)

// GormRepo backs the credential store, the token store and the revocation registry.
type GormRepo struct {
	DB *gorm.DB
}
