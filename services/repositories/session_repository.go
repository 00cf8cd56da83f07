package repositories

import (
	"context"
	"time"

	"github.com/Fababum/portfolio/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository handles admin_sessions rows.
type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.AdminSession) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	session.ID = id.String()
	return r.db.WithContext(ctx).Create(session).Error
}

// GetActiveByTokenHash returns gorm.ErrRecordNotFound for unknown or inactive sessions.
func (r *SessionRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_active = ?", tokenHash, true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *SessionRepository) DeactivateByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("token_hash = ?", tokenHash).
		Update("is_active", false).Error
}

func (r *SessionRepository) DeactivateAllForAdmin(ctx context.Context, adminID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("admin_id = ? AND is_active = ?", adminID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *SessionRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *SessionRepository) ListActiveForAdmin(ctx context.Context, adminID uint, now time.Time) ([]model.AdminSession, error) {
	var sessions []model.AdminSession
	err := r.db.WithContext(ctx).
		Where("admin_id = ? AND is_active = ? AND expires_at > ?", adminID, true, now).
		Order("last_used_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("is_active = ? AND expires_at < ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
