package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts names case-insensitively, with or without a "ROLE_" prefix.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "role_")
	switch Role(name) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(name), nil
	}
	return "", ErrUnknownRole
}

// RoleRef is a role as clients send it: either "admin" or {"name": "admin"}.
type RoleRef struct {
	Role Role
}

func (r *RoleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ErrUnknownRole
	}

	var name string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
	case '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		name = obj.Name
	default:
		return ErrUnknownRole
	}

	role, err := ParseRole(name)
	if err != nil {
		return err
	}
	r.Role = role
	return nil
}

func (r RoleRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r.Role))
}
