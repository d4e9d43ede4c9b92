package repository

import (
	"billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

type ActivityFilter struct {
	UserID     *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	Offset     int
	Limit      int
}

// List returns audit entries newest first, with the author's username joined
// in for display.
func (r *ActivityRepository) List(f ActivityFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.Model(&models.ActivityLog{})
	if f.UserID != nil {
		query = query.Where("activity_logs.user_id = ?", *f.UserID)
	}
	if f.EntityType != "" {
		query = query.Where("activity_logs.entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		query = query.Where("activity_logs.entity_id = ?", *f.EntityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	err := query.
		Select("activity_logs.*, u.username AS user_name").
		Joins("LEFT JOIN users u ON u.id = activity_logs.user_id").
		Order("activity_logs.created_at DESC").
		Limit(f.Limit).Offset(f.Offset).
		Scan(&logs).Error
	return logs, total, err
}
