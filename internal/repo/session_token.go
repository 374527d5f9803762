package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/blog_service/internal/hash"
	"github.com/Skotchmaster/blog_service/internal/models"
)

func (r *GormRepo) CreateSessionToken(ctx context.Context, userID uint, username, token string, issuedAt, expiresAt time.Time, meta models.ClientMeta) (*models.SessionToken, error) {
	st := models.SessionToken{
		UserID:     userID,
		Username:   username,
		TokenHash:  hash.Sha256Hex(token),
		IssuedAt:   issuedAt.UTC(),
		ExpiresAt:  expiresAt.UTC(),
		LastUsedAt: issuedAt.UTC(),
		ClientIP:   meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if err := r.DB.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// IsTokenValid reports whether token has a row that is neither blacklisted nor expired at now.
func (r *GormRepo) IsTokenValid(ctx context.Context, token string, now time.Time) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("token_hash = ? AND blacklisted = ? AND expires_at > ?", hash.Sha256Hex(token), false, now.UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) BlacklistAllForUser(ctx context.Context, username string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("username = ? AND blacklisted = ?", username, false).
		Update("blacklisted", true)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) BlacklistOtherTokensForUser(ctx context.Context, username, keep string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("username = ? AND blacklisted = ? AND token_hash <> ?", username, false, hash.Sha256Hex(keep)).
		Update("blacklisted", true)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) BlacklistToken(ctx context.Context, token string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("token_hash = ? AND blacklisted = ?", hash.Sha256Hex(token), false).
		Update("blacklisted", true)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) TouchLastUsed(ctx context.Context, token string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("token_hash = ?", hash.Sha256Hex(token)).
		Update("last_used_at", at.UTC()).Error
}

func (r *GormRepo) ActiveTokensForUser(ctx context.Context, username string, now time.Time) ([]models.SessionToken, error) {
	var out []models.SessionToken
	err := r.DB.WithContext(ctx).
		Where("username = ? AND blacklisted = ? AND expires_at > ?", username, false, now.UTC()).
		Order("issued_at DESC").
		Find(&out).Error
	return out, err
}

// PurgeExpiredTokens deletes rows whose expiry is before the cutoff.
func (r *GormRepo) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", before.UTC()).Delete(&models.SessionToken{})
	return res.RowsAffected, res.Error
}
