package repository

import (
	"errors"

	"billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationSettingsRepository struct {
	db *gorm.DB
}

func NewNotificationSettingsRepository(db *gorm.DB) *NotificationSettingsRepository {
	return &NotificationSettingsRepository{db: db}
}

// GetOrCreate returns the user's settings, lazily creating an all-enabled row
// on first access.
func (r *NotificationSettingsRepository) GetOrCreate(userID uuid.UUID) (*models.NotificationSettings, error) {
	var s models.NotificationSettings
	err := r.db.First(&s, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.NotificationSettings{
			ID:              uuid.New(),
			UserID:          userID,
			InvoiceCreated:  true,
			PaymentReceived: true,
			InvoiceOverdue:  true,
		}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *NotificationSettingsRepository) Update(s *models.NotificationSettings) error {
	return r.db.Save(s).Error
}

// Enabled reports whether a notification type is switched on for the user.
// Missing settings rows default to enabled.
func (r *NotificationSettingsRepository) Enabled(userID uuid.UUID, notificationType string) bool {
	s, err := r.GetOrCreate(userID)
	if err != nil {
		return true
	}
	return s.Enabled(notificationType)
}
