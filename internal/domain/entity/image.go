package entity

import "time"

type Image struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ContentType string    `gorm:"not null" json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Data        []byte    `gorm:"not null" json:"-"`
}
