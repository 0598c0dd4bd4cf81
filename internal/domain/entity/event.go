package entity

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

const DefaultNotificationThreshold uint = 5

type ClassEvent struct {
	ID                    string         `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	ClassName             string         `gorm:"not null" json:"class_name"`
	Grade                 string         `json:"grade"`
	EventName             string         `gorm:"not null" json:"event_name"`
	Description           string         `json:"description"`
	Location              string         `gorm:"not null" json:"location"`
	Tags                  pq.StringArray `gorm:"type:text[]" json:"tags"`
	MaxCapacity           uint           `gorm:"not null" json:"max_capacity"`
	DurationMinutes       uint           `gorm:"not null" json:"duration_minutes"`
	ImageURL              string         `json:"image_url"`
	HostUserID            string         `gorm:"not null;index" json:"host_user_id"`
	HostUserName          string         `json:"host_user_name"`
	HostUserEmail         string         `json:"host_user_email"`
	NotificationThreshold uint           `gorm:"not null" json:"notification_threshold"`
}

// OwnedBy reports whether userID is the event's host.
func (e *ClassEvent) OwnedBy(userID string) bool {
	return e.HostUserID != "" && e.HostUserID == userID
}

type TimeSlot struct {
	ID           string    `json:"id"`
	ClassEventID string    `json:"class_event_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// TimeSlots splits the festival day [openHour, closeHour) on day into
// back-to-back slots of the event's duration. A trailing remainder shorter
// than the duration is dropped.
func (e *ClassEvent) TimeSlots(day time.Time, openHour, closeHour int) []TimeSlot {
	if e.DurationMinutes == 0 || closeHour <= openHour {
		return nil
	}
	duration := time.Duration(e.DurationMinutes) * time.Minute
	start := time.Date(day.Year(), day.Month(), day.Day(), openHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), closeHour, 0, 0, 0, day.Location())

	var slots []TimeSlot
	for i := 0; !start.Add(duration).After(end); i++ {
		slots = append(slots, TimeSlot{
			ID:           fmt.Sprintf("%s-slot-%d", e.ID, i),
			ClassEventID: e.ID,
			StartTime:    start,
			EndTime:      start.Add(duration),
		})
		start = start.Add(duration)
	}
	return slots
}
