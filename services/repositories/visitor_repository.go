package repositories

import (
	"context"
	"time"

	"github.com/Fababum/portfolio/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitorRepository handles the users and visits tables.
type VisitorRepository struct {
	BaseRepository
}

func NewVisitorRepository(db *gorm.DB) *VisitorRepository {
	return &VisitorRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *VisitorRepository) GetVisitor(ctx context.Context, userID string) (*model.Visitor, error) {
	var visitor model.Visitor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&visitor).Error; err != nil {
		return nil, err
	}
	return &visitor, nil
}

// RecordVisit inserts the visit and bumps (or creates) the visitor row atomically.
func (r *VisitorRepository) RecordVisit(ctx context.Context, userID string, isReturning bool, ip string, at time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visit := &model.Visit{
			ID:          id.String(),
			UserID:      userID,
			IsReturning: isReturning,
			IPAddress:   ip,
			Timestamp:   at,
		}
		if err := tx.Create(visit).Error; err != nil {
			return err
		}

		visitor := &model.Visitor{
			UserID:     userID,
			VisitCount: 1,
			FirstVisit: at,
			LastVisit:  at,
			Status:     "active",
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"visit_count": gorm.Expr("users.visit_count + 1"),
				"last_visit":  at,
			}),
		}).Create(visitor).Error
	})
}

func (r *VisitorRepository) UpdateStatus(ctx context.Context, userID, status string) (*model.Visitor, error) {
	var visitor *model.Visitor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Visitor{}).Where("user_id = ?", userID).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var updated model.Visitor
		if err := tx.Where("user_id = ?", userID).First(&updated).Error; err != nil {
			return err
		}
		visitor = &updated
		return nil
	})
	return visitor, err
}

func (r *VisitorRepository) ListVisitors(ctx context.Context) ([]model.Visitor, error) {
	var visitors []model.Visitor
	err := r.db.WithContext(ctx).Order("last_visit DESC").Find(&visitors).Error
	return visitors, err
}

func (r *VisitorRepository) RecentVisits(ctx context.Context, limit int) ([]model.Visit, error) {
	var visits []model.Visit
	err := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&visits).Error
	return visits, err
}
