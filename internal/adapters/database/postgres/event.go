package postgres

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
)

type EventStorage struct {
	db *gorm.DB
}

func NewEventStorage(db *gorm.DB) *EventStorage {
	return &EventStorage{
		db: db,
	}
}

func (s *EventStorage) Create(ctx context.Context, event *entity.ClassEvent) (*entity.ClassEvent, error) {
	err := s.db.WithContext(ctx).Create(event).Error
	if err != nil {
		return nil, wrap(err, "event")
	}
	return event, nil
}

func (s *EventStorage) Get(ctx context.Context, id string) (*entity.ClassEvent, error) {
	if !uuidID(id) {
		return nil, wrap(gorm.ErrRecordNotFound, "event")
	}
	var event entity.ClassEvent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, wrap(err, "event")
	}
	return &event, nil
}

// GetAll returns every event, newest first.
func (s *EventStorage) GetAll(ctx context.Context) ([]entity.ClassEvent, error) {
	var events []entity.ClassEvent
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error
	return events, wrap(err, "events")
}

func (s *EventStorage) GetByHostID(ctx context.Context, hostUserID string) ([]entity.ClassEvent, error) {
	var events []entity.ClassEvent
	err := s.db.WithContext(ctx).Where("host_user_id = ?", hostUserID).Order("created_at DESC").Find(&events).Error
	return events, wrap(err, "events")
}

func (s *EventStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.ClassEvent{}).Count(&count).Error
	return count, wrap(err, "events")
}

func (s *EventStorage) UpdateHost(ctx context.Context, id, hostName, hostEmail string) error {
	res := s.db.WithContext(ctx).Model(&entity.ClassEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"host_user_name":  hostName,
		"host_user_email": hostEmail,
	})
	if res.Error == nil && res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "event")
	}
	return wrap(res.Error, "event")
}

func (s *EventStorage) UpdateThreshold(ctx context.Context, id string, threshold uint) (*entity.ClassEvent, error) {
	res := s.db.WithContext(ctx).Model(&entity.ClassEvent{}).Where("id = ?", id).Update("notification_threshold", threshold)
	if res.Error == nil && res.RowsAffected == 0 {
		return nil, wrap(gorm.ErrRecordNotFound, "event")
	}
	if res.Error != nil {
		return nil, wrap(res.Error, "event")
	}
	return s.Get(ctx, id)
}
