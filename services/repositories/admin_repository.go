package repositories

import (
	"context"
	"time"

	"github.com/Fababum/portfolio/model"
	"gorm.io/gorm"
)

// AdminRepository handles admin_users rows.
type AdminRepository struct {
	BaseRepository
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *AdminRepository) GetActiveByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var admin model.AdminUser
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) GetActiveByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	var admin model.AdminUser
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AdminUser{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.AdminUser{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (r *AdminRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&model.AdminUser{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}
