package repository

import (
	"context"

	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPhoneNumber finds a user by phone number
func (r *GormUserRepository) FindByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePreference changes the notification channel of a user
func (r *GormUserRepository) UpdatePreference(ctx context.Context, id uint64, channel models.NotificationChannel) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"notification_preference": channel})
}

// UpdateRoles replaces the role set of a user
func (r *GormUserRepository) UpdateRoles(ctx context.Context, id uint64, roles models.Roles) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"roles": roles})
}

func (r *GormUserRepository) updateColumns(ctx context.Context, id uint64, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
