package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/blog_service/internal/hash"
	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/repo"
)

func (s *AuthService) UpdateRole(ctx context.Context, userID uint, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_role", "user_id", userID)

	role, err := models.ParseRole(string(role))
	if err != nil {
		l.Warn("update_role_failed", "status", 400, "reason", "unknown role")
		return nil, invalid("invalid role")
	}

	if err := s.Users.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		l.Error("update_role_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("update_role_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}

	l.Info("role_updated", "role", role)
	s.publish(ctx, l, mykafka.EventRoleChanged, user, map[string]string{"role": string(role)})
	return user, nil
}

// DeactivateUser disables the account and blacklists every token it holds.
func (s *AuthService) DeactivateUser(ctx context.Context, userID uint) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.deactivate", "user_id", userID)

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		l.Error("deactivate_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}

	if err := s.Users.SetActive(ctx, userID, false); err != nil {
		l.Error("deactivate_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	user.Active = false

	if _, err := s.Tokens.BlacklistAllForUser(ctx, user.Username); err != nil {
		l.Error("deactivate_failed", "status", 500, "reason", "cannot blacklist tokens", "error", err)
		return nil, ErrStoreUnavailable
	}

	l.Info("user_deactivated")
	s.publish(ctx, l, mykafka.EventUserDeactivated, user, nil)
	return user, nil
}

// BootstrapAdmin creates the initial admin account when it does not exist yet.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "admin.bootstrap", "username", username)

	_, err := s.Users.FindUserByUsername(ctx, username)
	if err == nil {
		l.Info("admin_exists")
		return nil
	}
	if !errors.Is(err, repo.ErrUserNotFound) {
		return err
	}

	if err := validateSignup(username, email, password); err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := s.Users.CreateUser(ctx, admin); err != nil {
		return err
	}
	l.Info("admin_created", "user_id", admin.ID)
	return nil
}
