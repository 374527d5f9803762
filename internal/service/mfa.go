package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
)

type MfaEnrollment struct {
	Secret string
	URI    string
	QRCode string
}

// GenerateMfaSecret creates a secret for user to scan. Nothing is stored
// until EnableMfa confirms a code generated from it.
func (s *AuthService) GenerateMfaSecret(ctx context.Context, user *models.User) (*MfaEnrollment, error) {
	l := logging.FromContext(ctx).With("svc", "mfa.generate", "username", user.Username)

	secret, err := s.MFA.GenerateSecret()
	if err != nil {
		l.Error("mfa_generate_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	uri, err := s.MFA.ProvisioningURI(secret, user.Username)
	if err != nil {
		l.Error("mfa_generate_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	qr, err := s.MFA.QRCodeDataURI(secret, user.Username)
	if err != nil {
		l.Error("mfa_generate_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	return &MfaEnrollment{Secret: secret, URI: uri, QRCode: qr}, nil
}

func (s *AuthService) EnableMfa(ctx context.Context, user *models.User, secret, code string) error {
	l := logging.FromContext(ctx).With("svc", "mfa.enable", "username", user.Username)

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return invalid("secret is required")
	}
	if !s.MFA.VerifyCode(secret, code) {
		l.Warn("mfa_enable_failed", "status", 400, "reason", "invalid verification code")
		return ErrInvalidMfaCode
	}
	if err := s.Users.SetMFA(ctx, user.ID, &secret); err != nil {
		l.Error("mfa_enable_failed", "status", 500, "error", err)
		return ErrStoreUnavailable
	}

	l.Info("mfa_enabled")
	s.publish(ctx, l, mykafka.EventMfaEnabled, user, nil)
	return nil
}

func (s *AuthService) DisableMfa(ctx context.Context, user *models.User) error {
	l := logging.FromContext(ctx).With("svc", "mfa.disable", "username", user.Username)

	if err := s.Users.SetMFA(ctx, user.ID, nil); err != nil {
		l.Error("mfa_disable_failed", "status", 500, "error", err)
		return ErrStoreUnavailable
	}

	l.Info("mfa_disabled")
	s.publish(ctx, l, mykafka.EventMfaDisabled, user, nil)
	return nil
}
