package mykafka

import "time"

const (
	EventUserRegistered      = "user_registered"
	EventUserLoggedIn        = "user_logged_in"
	EventUserLockedOut       = "user_locked_out"
	EventUserLoggedOut       = "user_logged_out"
	EventSessionsInvalidated = "sessions_invalidated"
	EventMfaEnabled          = "mfa_enabled"
	EventMfaDisabled         = "mfa_disabled"
	EventUserDeactivated     = "user_deactivated"
	EventRoleChanged         = "role_changed"
)

type AuthEvent struct {
	Type       string            `json:"type"`
	UserID     uint              `json:"user_id,omitempty"`
	Username   string            `json:"username"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}
