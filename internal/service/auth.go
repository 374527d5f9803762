package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/blog_service/internal/hash"
	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/metrics"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/repo"
	"github.com/Skotchmaster/blog_service/internal/tokens"
)

const logoutReason = "user logout"

// SessionResult is a fully authenticated session.
type SessionResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// SignInResult holds either a session or, for MFA accounts, a pending token.
type SignInResult struct {
	Session          *SessionResult
	MfaRequired      bool
	PendingToken     string
	PendingExpiresAt time.Time
}

// compared against when the username is unknown so both paths cost one bcrypt check
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("dummy-password-for-timing")
	return h
})

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateSignup(username, email, password); err != nil {
		l.Warn("register_error", "status", 400, "reason", err.Error())
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, ErrStoreUnavailable
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		Active:       true,
	}

	if err := s.Users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrUserAlreadyExist):
			l.Warn("register_error", "status", 400, "reason", "username taken")
			return nil, ErrUsernameTaken
		case errors.Is(err, repo.ErrEmailTaken):
			l.Warn("register_error", "status", 400, "reason", "email taken")
			return nil, ErrEmailTaken
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}

	l.Info("register_successful", "user_id", user.ID)
	s.publish(ctx, l, mykafka.EventUserRegistered, user, nil)
	return user, nil
}

func validateSignup(username, email, password string) error {
	switch {
	case len(username) < 3 || len(username) > 20:
		return invalid("username must be between 3 and 20 characters")
	case email == "" || len(email) > 50:
		return invalid("email must be at most 50 characters")
	case len(password) < 6 || len(password) > 40:
		return invalid("password must be between 6 and 40 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return invalid("email is not valid")
	}
	return nil
}

func (s *AuthService) SignIn(ctx context.Context, username, password string, meta models.ClientMeta) (*SignInResult, error) {
	username = strings.TrimSpace(username)
	l := logging.FromContext(ctx).With("svc", "auth.signin", "username", username)

	if username == "" || password == "" {
		return nil, invalid("username and password are required")
	}

	st, err := s.Limiter.BeforeAttempt(ctx, username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "limiter unavailable", "error", err)
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, ErrStoreUnavailable
	}
	if st.Locked {
		l.Warn("login_failed", "status", 400, "reason", "account locked")
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultLocked).Inc()
		return nil, &AccountLockedError{Minutes: st.MinutesRemaining()}
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
		l.Error("login_failed", "status", 500, "reason", "user lookup failed", "error", err)
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, ErrStoreUnavailable
	}
	if user == nil {
		hash.CheckPassword(dummyHash(), password)
		return nil, s.failedAttempt(ctx, l, username, nil)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, s.failedAttempt(ctx, l, username, user)
	}

	if !user.Active {
		l.Warn("login_failed", "status", 400, "reason", "account inactive")
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, ErrInvalidCredentials
	}

	if err := s.Limiter.RecordSuccess(ctx, username); err != nil {
		l.Warn("limiter_reset_failed", "error", err)
	}
	if user.FailedLoginAttempts != 0 {
		if err := s.Users.SetFailedLoginAttempts(ctx, user.ID, 0); err != nil {
			l.Warn("failed_attempts_reset_failed", "error", err)
		}
	}

	if user.MFAEnabled && user.MFASecret != nil {
		pending, exp, err := s.Issuer.IssuePendingMfaToken(user.Username)
		if err != nil {
			l.Error("login_failed", "status", 500, "reason", "cannot sign pending token", "error", err)
			metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
			return nil, ErrStoreUnavailable
		}
		l.Info("login_mfa_required")
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultMfaRequired).Inc()
		return &SignInResult{MfaRequired: true, PendingToken: pending, PendingExpiresAt: exp}, nil
	}

	sess, err := s.issueSession(ctx, l, user, meta, func() (string, time.Time, error) {
		return s.Issuer.IssueSessionToken(user.Username)
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	l.Info("login_successful")
	return &SignInResult{Session: sess}, nil
}

func (s *AuthService) failedAttempt(ctx context.Context, l *slog.Logger, username string, user *models.User) error {
	if user != nil {
		if err := s.Users.IncrementFailedLoginAttempts(ctx, username); err != nil {
			l.Warn("failed_attempts_update_failed", "error", err)
		}
	}

	st, err := s.Limiter.RecordFailure(ctx, username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "limiter unavailable", "error", err)
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
		return ErrStoreUnavailable
	}
	if st.Locked {
		l.Warn("login_failed", "status", 400, "reason", "lockout triggered")
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultLocked).Inc()
		subject := user
		if subject == nil {
			subject = &models.User{Username: username}
		}
		s.publish(ctx, l, mykafka.EventUserLockedOut, subject, nil)
		return &AccountLockedError{Minutes: int(st.Remaining / time.Minute), JustLocked: true}
	}

	l.Warn("login_failed", "status", 400, "reason", "invalid username or password")
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
	return ErrInvalidCredentials
}

// VerifyMfa completes a two-step sign-in. A wrong code leaves the pending token usable.
func (s *AuthService) VerifyMfa(ctx context.Context, pending, code string, meta models.ClientMeta) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_mfa")

	username, err := s.Issuer.ParseUsername(pending)
	if err != nil {
		l.Warn("mfa_failed", "status", 401, "reason", "invalid pending token", "error", err)
		return nil, ErrInvalidToken
	}
	l = l.With("username", username)

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("mfa_failed", "status", 401, "reason", "user not found")
			return nil, ErrInvalidToken
		}
		l.Error("mfa_failed", "status", 500, "error", err)
		return nil, ErrStoreUnavailable
	}
	if !user.Active || !user.MFAEnabled || user.MFASecret == nil {
		l.Warn("mfa_failed", "status", 401, "reason", "mfa no longer applicable")
		return nil, ErrInvalidToken
	}

	if !s.MFA.VerifyCode(*user.MFASecret, code) {
		l.Warn("mfa_failed", "status", 400, "reason", "invalid verification code")
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultMfaInvalid).Inc()
		return nil, ErrInvalidMfaCode
	}

	sess, err := s.issueSession(ctx, l, user, meta, func() (string, time.Time, error) {
		return s.Issuer.IssueTokenFromPendingToken(pending)
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	l.Info("mfa_login_successful")
	return sess, nil
}

// issueSession mints a token, blacklists every prior token of the user, then
// records the new one. Nothing is issued when minting or the blacklist fails,
// and a mint failure leaves prior sessions untouched. A failed insert of the
// new row is only logged.
func (s *AuthService) issueSession(ctx context.Context, l *slog.Logger, user *models.User, meta models.ClientMeta, mint func() (string, time.Time, error)) (*SessionResult, error) {
	token, exp, err := mint()
	if err != nil {
		if errors.Is(err, tokens.ErrInvalidToken) {
			l.Warn("session_issue_failed", "status", 401, "reason", "token expired before issuance", "error", err)
			return nil, ErrInvalidToken
		}
		l.Error("session_issue_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, ErrStoreUnavailable
	}

	if _, err := s.Tokens.BlacklistAllForUser(ctx, user.Username); err != nil {
		l.Error("session_issue_failed", "status", 500, "reason", "cannot blacklist previous tokens", "error", err)
		return nil, ErrStoreUnavailable
	}

	if _, err := s.Tokens.CreateSessionToken(ctx, user.ID, user.Username, token, s.now(), exp, meta); err != nil {
		l.Error("session_store_failed", "reason", "token issued without a token store row", "error", err)
	}

	metrics.SessionsIssuedTotal.Inc()
	s.publish(ctx, l, mykafka.EventUserLoggedIn, user, map[string]string{"client_ip": meta.IP})
	return &SessionResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Logout revokes token. Logging out an already revoked token returns ErrTokenRevoked.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	username, err := s.Issuer.ParseUsername(token)
	if err != nil {
		l.Warn("logout_failed", "status", 401, "reason", "invalid token", "error", err)
		return ErrInvalidToken
	}
	exp, err := s.Issuer.ParseExpiry(token)
	if err != nil {
		return ErrInvalidToken
	}
	l = l.With("username", username)

	revoked, err := s.Revocations.IsRevoked(ctx, token)
	if err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return ErrStoreUnavailable
	}
	if revoked {
		l.Warn("logout_failed", "status", 401, "reason", "already revoked")
		return ErrTokenRevoked
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	var userID *uint
	if err == nil {
		userID = &user.ID
	}

	if _, err := s.Revocations.AddRevocation(ctx, token, exp, userID, logoutReason, s.now()); err != nil {
		if errors.Is(err, repo.ErrAlreadyRevoked) {
			l.Warn("logout_failed", "status", 401, "reason", "already revoked")
			return ErrTokenRevoked
		}
		l.Error("logout_failed", "status", 500, "reason", "cannot record revocation", "error", err)
		return ErrStoreUnavailable
	}

	if _, err := s.Tokens.BlacklistToken(ctx, token); err != nil {
		l.Warn("logout_blacklist_failed", "error", err)
	}

	l.Info("successful_logout")
	s.publish(ctx, l, mykafka.EventUserLoggedOut, &models.User{ID: derefID(userID), Username: username}, nil)
	return nil
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
