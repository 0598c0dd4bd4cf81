package entity

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type RoleApplication struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	UserID        string            `gorm:"not null;index" json:"user_id"`
	UserName      string            `json:"user_name"`
	UserEmail     string            `json:"user_email"`
	CurrentRole   Role              `json:"current_role"`
	RequestedRole Role              `gorm:"not null" json:"requested_role"`
	Reason        string            `gorm:"not null" json:"reason"`
	Status        ApplicationStatus `gorm:"not null;index" json:"status"`
	ReviewedBy    string            `json:"reviewed_by"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
}

// Pending is the only state a transition may start from.
func (a *RoleApplication) Pending() bool {
	return a.Status == ApplicationPending
}
