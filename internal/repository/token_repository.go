package repository

import (
	"context"
	"time"

	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTokenRepository is a GORM implementation of TokenRepository
type GormTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &GormTokenRepository{db: db, now: time.Now}
}

// Revoke blacklists a token ID and purges entries that have expired anyway
func (r *GormTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", r.now().UTC()).Delete(&models.RevokedToken{}).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC()}).Error
	})
}

// IsRevoked reports whether a token ID is blacklisted
func (r *GormTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
