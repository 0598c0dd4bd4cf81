package entity

import "time"

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"

	// ReservationCancelled and ReservationPending are declared for storage
	// compatibility only. No code path sets them: reservations cannot be
	// cancelled or held.
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationPending   ReservationStatus = "pending"
)

// Reservation is immutable after creation except for Attended and UpdatedAt.
type Reservation struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	UserID          string            `gorm:"not null;index" json:"user_id"`
	UserName        string            `json:"user_name"`
	UserEmail       string            `json:"user_email"`
	ClassEventID    string            `gorm:"not null;index" json:"class_event_id"`
	NumberOfPeople  uint              `gorm:"not null" json:"number_of_people"`
	SpecialRequests string            `json:"special_requests"`
	Status          ReservationStatus `gorm:"not null" json:"status"`
	Attended        *bool             `json:"attended,omitempty"`
	ReservationCode string            `gorm:"size:6;index" json:"reservation_code"`

	// Snapshot of the event at booking time, empty when snapshots are disabled.
	EventName string `json:"event_name"`
	ClassName string `json:"class_name"`
	Location  string `json:"location"`
}

// HasAttended treats an unset attendance as false.
func (r *Reservation) HasAttended() bool {
	return r.Attended != nil && *r.Attended
}
