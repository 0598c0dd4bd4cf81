package postgres

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
)

type NotificationStorage struct {
	db *gorm.DB
}

func NewNotificationStorage(db *gorm.DB) *NotificationStorage {
	return &NotificationStorage{
		db: db,
	}
}

func (s *NotificationStorage) Create(ctx context.Context, notification *entity.Notification) error {
	return wrap(s.db.WithContext(ctx).Create(notification).Error, "notification")
}

// GetByEventID returns the delivered notifications of an event, newest first.
func (s *NotificationStorage) GetByEventID(ctx context.Context, eventID string) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at DESC").Find(&notifications).Error
	return notifications, wrap(err, "notifications")
}
