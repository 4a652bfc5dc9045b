package services

import (
	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationService interface {
	ListForUser(db *gorm.DB, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(db *gorm.DB, id uuid.UUID, userID uuid.UUID) error
	UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error)
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

func (s *NotificationServiceImpl) ListForUser(db *gorm.DB, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	err := q.Order("is_read asc, created_at desc").Limit(200).Find(&notifications).Error
	return notifications, err
}

// MarkRead flips is_read for one notification. Only the recipient may mark
// their own notification; anyone else gets a not-found.
func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, id uuid.UUID, userID uuid.UUID) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
