package entity

import "time"

type NotificationType string

const (
	NotificationTypeCapacityWarning NotificationType = "capacity_warning"
)

type PushChannel string

const (
	PushChannelTelegram PushChannel = "telegram"
	PushChannelEmail    PushChannel = "email"
	PushChannelWebPush  PushChannel = "webpush"
)

func (c PushChannel) Valid() bool {
	return c.Preference() > 0
}

// Preference orders a user's channels for a single delivery: 1 is tried
// first. Unknown channels return 0.
func (c PushChannel) Preference() int {
	switch c {
	case PushChannelWebPush:
		return 1
	case PushChannelTelegram:
		return 2
	case PushChannelEmail:
		return 3
	}
	return 0
}

// PushSubscription is one delivery address of a user on one channel.
type PushSubscription struct {
	UserID    string      `gorm:"primaryKey" json:"user_id"`
	Channel   PushChannel `gorm:"primaryKey" json:"channel"`
	Token     string      `gorm:"not null" json:"token"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Notification represents a notification that has been delivered to a user
type Notification struct {
	ID        string           `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   string           `gorm:"not null;index" json:"event_id"`
	UserID    string           `gorm:"not null" json:"user_id"`
	Channel   PushChannel      `gorm:"not null" json:"channel"`
	Type      NotificationType `gorm:"not null" json:"type"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
}
