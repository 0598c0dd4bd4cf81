package dto

import (
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
)

type ReservationInput struct {
	NumberOfPeople  uint   `json:"number_of_people"`
	SpecialRequests string `json:"special_requests"`
}

// Availability may report a negative Remaining: the event is overbooked.
type Availability struct {
	EventID   string `json:"event_id"`
	Capacity  int64  `json:"capacity"`
	Occupied  int64  `json:"occupied"`
	Remaining int64  `json:"remaining"`
}

func NewAvailability(eventID string, capacity uint, occupied int64) Availability {
	return Availability{
		EventID:   eventID,
		Capacity:  int64(capacity),
		Occupied:  occupied,
		Remaining: int64(capacity) - occupied,
	}
}

type Threshold struct {
	EventID   string `json:"event_id"`
	Remaining int64  `json:"remaining"`
	Threshold uint   `json:"threshold"`
	Crossed   bool   `json:"crossed"`
}

// NewThreshold flags an event as approaching capacity when 0 < remaining <= threshold.
// A full or overbooked event is not approaching anything.
func NewThreshold(eventID string, remaining int64, threshold uint) Threshold {
	return Threshold{
		EventID:   eventID,
		Remaining: remaining,
		Threshold: threshold,
		Crossed:   remaining > 0 && remaining <= int64(threshold),
	}
}

type EventTotals struct {
	Total         int64 `json:"total"`
	AttendedTotal int64 `json:"attended_total"`
}

type AttendanceFilter string

const (
	FilterAll         AttendanceFilter = "all"
	FilterAttended    AttendanceFilter = "attended"
	FilterNotAttended AttendanceFilter = "not_attended"
)

func (f AttendanceFilter) Match(r *entity.Reservation) bool {
	switch f {
	case FilterAttended:
		return r.HasAttended()
	case FilterNotAttended:
		return !r.HasAttended()
	default:
		return true
	}
}

// HostReservation is a reservation as seen on the host's listing, joined with
// the live event record rather than the booking-time snapshot.
type HostReservation struct {
	ID              string     `json:"id"`
	ClassEventID    string     `json:"class_event_id"`
	EventName       string     `json:"event_name"`
	ClassName       string     `json:"class_name"`
	Location        string     `json:"location"`
	UserID          string     `json:"user_id"`
	UserName        string     `json:"user_name"`
	UserEmail       string     `json:"user_email"`
	NumberOfPeople  uint       `json:"number_of_people"`
	SpecialRequests string     `json:"special_requests"`
	Status          string     `json:"status"`
	Attended        *bool      `json:"attended"`
	ReservationCode string     `json:"reservation_code"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func NewHostReservation(r entity.Reservation, event *entity.ClassEvent) HostReservation {
	hr := HostReservation{
		ID:              r.ID,
		ClassEventID:    r.ClassEventID,
		EventName:       r.EventName,
		ClassName:       r.ClassName,
		Location:        r.Location,
		UserID:          r.UserID,
		UserName:        r.UserName,
		UserEmail:       r.UserEmail,
		NumberOfPeople:  r.NumberOfPeople,
		SpecialRequests: r.SpecialRequests,
		Status:          string(r.Status),
		Attended:        r.Attended,
		ReservationCode: r.ReservationCode,
		CreatedAt:       r.CreatedAt,
	}
	if !r.UpdatedAt.IsZero() {
		updated := r.UpdatedAt
		hr.UpdatedAt = &updated
	}
	if event != nil {
		hr.EventName = event.EventName
		hr.ClassName = event.ClassName
		hr.Location = event.Location
	}
	return hr
}
