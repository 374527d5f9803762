package models

import (
	"time"
)

type User struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Username            string    `gorm:"uniqueIndex;not null"       json:"username"`
	Email               string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash        string    `gorm:"not null"                   json:"-"`
	Role                Role      `gorm:"not null;default:user"      json:"role"`
	MFAEnabled          bool      `gorm:"not null;default:false"     json:"mfaEnabled"`
	MFASecret           *string   `                                  json:"-"`
	Active              bool      `gorm:"not null;default:true"      json:"active"`
	FailedLoginAttempts int       `gorm:"not null;default:0"         json:"-"`
	CreatedAt           time.Time `                                  json:"createdAt"`
}

// SessionToken holds the SHA-256 digest of an issued session token, never the token itself.
type SessionToken struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      uint      `gorm:"index;not null"            json:"userId"`
	Username    string    `gorm:"index;not null"            json:"username"`
	TokenHash   string    `gorm:"uniqueIndex;not null"      json:"-"`
	Blacklisted bool      `gorm:"not null;default:false"    json:"blacklisted"`
	IssuedAt    time.Time `gorm:"not null"                  json:"issuedAt"`
	ExpiresAt   time.Time `gorm:"index;not null"            json:"expiresAt"`
	LastUsedAt  time.Time `gorm:"not null"                  json:"lastUsedAt"`
	ClientIP    string    `                                 json:"clientIp,omitempty"`
	UserAgent   string    `                                 json:"userAgent,omitempty"`
}

type RevocationEntry struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	TokenHash     string    `gorm:"uniqueIndex;not null"      json:"-"`
	UserID        *uint     `gorm:"index"                     json:"userId,omitempty"`
	Reason        string    `                                 json:"reason,omitempty"`
	BlacklistedAt time.Time `gorm:"not null"                  json:"blacklistedAt"`
	ExpiresAt     time.Time `gorm:"index;not null"            json:"expiresAt"`
}

func (RevocationEntry) TableName() string { return "revoked_tokens" }

// ClientMeta is request metadata recorded next to a session token.
type ClientMeta struct {
	IP        string
	UserAgent string
}

func All() []any {
	return []any{&User{}, &SessionToken{}, &RevocationEntry{}}
}
