package dto

type Upload struct {
	Data        []byte
	ContentType string
}

type EventInput struct {
	ClassName             string   `json:"class_name"`
	Grade                 string   `json:"grade"`
	EventName             string   `json:"event_name"`
	Description           string   `json:"description"`
	Location              string   `json:"location"`
	Tags                  []string `json:"tags"`
	MaxCapacity           uint     `json:"max_capacity"`
	DurationMinutes       uint     `json:"duration_minutes"`
	NotificationThreshold *uint    `json:"notification_threshold,omitempty"`
	Image                 *Upload  `json:"-"`
}

type ResyncReport struct {
	Scanned      int `json:"scanned"`
	UpdatedCount int `json:"updated_count"`
	Skipped      int `json:"skipped"`
}
