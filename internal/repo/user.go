package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_service/internal/models"
)

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts u unless the username or email is already taken.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	db := r.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExist
	}
	if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}

	if err := db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return err
	}
	return nil
}

func (r *GormRepo) SetFailedLoginAttempts(ctx context.Context, userID uint, attempts int) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("failed_login_attempts", attempts).Error
}

func (r *GormRepo) IncrementFailedLoginAttempts(ctx context.Context, username string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
}

// SetMFA stores secret and enables MFA; a nil secret disables it.
func (r *GormRepo) SetMFA(ctx context.Context, userID uint, secret *string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"mfa_enabled": secret != nil,
			"mfa_secret":  secret,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) SetRole(ctx context.Context, userID uint, role models.Role) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) SetActive(ctx context.Context, userID uint, active bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
