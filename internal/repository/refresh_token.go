package repository

import (
	"context"
	"errors"
	"time"

	"librarium/internal/models"

	"gorm.io/gorm"
)

// ErrRefreshTokenInvalid is returned when a refresh token is unknown or already expired.
var ErrRefreshTokenInvalid = errors.New("refresh token is unknown or expired")

// RefreshTokenRepository persists opaque refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// Expire atomically moves a still-valid token's expiry to now and returns
	// it. Concurrent callers presenting the same token see exactly one success;
	// the rest get ErrRefreshTokenInvalid.
	Expire(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	// Rotate expires oldToken and stores next in one transaction.
	Rotate(ctx context.Context, oldToken string, next *models.RefreshToken, now time.Time) (*models.RefreshToken, error)
	ExpireAllForUser(ctx context.Context, userID uint, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository returns a new RefreshTokenRepository implementation.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return mapWriteError(r.db.WithContext(ctx).Create(token).Error, "refresh token collision")
}

func (r *refreshTokenRepository) Expire(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	var expired *models.RefreshToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		expired, err = expireToken(tx, token, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldToken string, next *models.RefreshToken, now time.Time) (*models.RefreshToken, error) {
	var previous *models.RefreshToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		previous, err = expireToken(tx, oldToken, now)
		if err != nil {
			return err
		}
		next.UserID = previous.UserID
		return mapWriteError(tx.Create(next).Error, "refresh token collision")
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

func expireToken(tx *gorm.DB, token string, now time.Time) (*models.RefreshToken, error) {
	if token == "" {
		return nil, ErrRefreshTokenInvalid
	}

	res := tx.Model(&models.RefreshToken{}).
		Where("token = ? AND expires_at > ?", token, now).
		Updates(map[string]interface{}{"expires_at": now, "updated_at": now})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrRefreshTokenInvalid
	}

	var rt models.RefreshToken
	if err := tx.Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, mapError(err, "Refresh token", "")
	}
	return &rt, nil
}

func (r *refreshTokenRepository) ExpireAllForUser(ctx context.Context, userID uint, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Updates(map[string]interface{}{"expires_at": now, "updated_at": now})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
