package postgres

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionStorage struct {
	db *gorm.DB
}

func NewSubscriptionStorage(db *gorm.DB) *SubscriptionStorage {
	return &SubscriptionStorage{
		db: db,
	}
}

// Upsert keeps one subscription per user and channel; a newer token replaces the old one.
func (s *SubscriptionStorage) Upsert(ctx context.Context, subscription *entity.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(subscription).Error
	return wrap(err, "subscription")
}

func (s *SubscriptionStorage) Delete(ctx context.Context, userID string, channel entity.PushChannel) error {
	err := s.db.WithContext(ctx).Where("user_id = ? AND channel = ?", userID, channel).Delete(&entity.PushSubscription{}).Error
	return wrap(err, "subscription")
}

func (s *SubscriptionStorage) GetByUserID(ctx context.Context, userID string) ([]entity.PushSubscription, error) {
	var subscriptions []entity.PushSubscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subscriptions).Error
	return subscriptions, wrap(err, "subscriptions")
}

func (s *SubscriptionStorage) GetByUserIDs(ctx context.Context, userIDs []string) ([]entity.PushSubscription, error) {
	var subscriptions []entity.PushSubscription
	if len(userIDs) == 0 {
		return subscriptions, nil
	}
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&subscriptions).Error
	return subscriptions, wrap(err, "subscriptions")
}
