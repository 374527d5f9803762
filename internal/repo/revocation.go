package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/blog_service/internal/hash"
	"github.com/Skotchmaster/blog_service/internal/models"
)

// AddRevocation records token as revoked until expiresAt. A second add for the
// same token keeps the first entry and returns ErrAlreadyRevoked.
func (r *GormRepo) AddRevocation(ctx context.Context, token string, expiresAt time.Time, userID *uint, reason string, now time.Time) (*models.RevocationEntry, error) {
	entry := models.RevocationEntry{
		TokenHash:     hash.Sha256Hex(token),
		UserID:        userID,
		Reason:        reason,
		BlacklistedAt: now.UTC(),
		ExpiresAt:     expiresAt.UTC(),
	}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_hash"}}, DoNothing: true}).
		Create(&entry)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyRevoked
	}
	return &entry, nil
}

func (r *GormRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RevocationEntry{}).
		Where("token_hash = ?", hash.Sha256Hex(token)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RevocationEntry{})
	return res.RowsAffected, res.Error
}
