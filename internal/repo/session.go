package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/basket_shop/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// GetActiveSession returns the session only if it is neither revoked nor expired at now.
func (r *GormRepo) GetActiveSession(ctx context.Context, jti string, now time.Time) (*models.Session, error) {
	var s models.Session
	err := r.DB.WithContext(ctx).
		Where("jti = ? AND revoked = ? AND expires_at > ?", jti, false, now.UTC()).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}
