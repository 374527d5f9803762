package transport

import (
	"time"

	"github.com/Skotchmaster/blog_service/internal/models"
)

const RedactedToken = "[REDACTED]"

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyMfaRequest struct {
	PendingToken string `json:"pendingToken"`
	Code         string `json:"code"`
}

type JwtResponse struct {
	Token     string      `json:"token"`
	Type      string      `json:"type"`
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type MfaChallengeResponse struct {
	PendingToken string    `json:"pendingToken"`
	MfaRequired  bool      `json:"mfaRequired"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionView struct {
	ID         uint      `json:"id"`
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issuedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ClientIP   string    `json:"clientIp,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

type MfaStatusResponse struct {
	Enabled bool `json:"enabled"`
}

type MfaSecretResponse struct {
	Secret     string `json:"secret"`
	QRCode     string `json:"qrCode"`
	OtpauthURL string `json:"otpauthUrl"`
}

type EnableMfaRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

type UpdateRoleRequest struct {
	Role models.RoleRef `json:"role"`
}

type CleanupResponse struct {
	Message     string `json:"message"`
	Tokens      int64  `json:"tokensPurged"`
	Revocations int64  `json:"revocationsPurged"`
}

func NewJwtResponse(token string, exp time.Time, u *models.User) JwtResponse {
	return JwtResponse{
		Token:     token,
		Type:      "Bearer",
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: exp.UTC(),
	}
}

func NewSessionViews(rows []models.SessionToken) []SessionView {
	out := make([]SessionView, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionView{
			ID:         r.ID,
			Token:      RedactedToken,
			IssuedAt:   r.IssuedAt,
			ExpiresAt:  r.ExpiresAt,
			LastUsedAt: r.LastUsedAt,
			ClientIP:   r.ClientIP,
			UserAgent:  r.UserAgent,
		})
	}
	return out
}
