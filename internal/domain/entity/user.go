package entity

import "time"

type Role string

const (
	RoleVisitor Role = "visitor"
	RoleHost    Role = "host"
	RoleAdmin   Role = "admin"
)

// Rank orders roles visitor(1) < host(2) < admin(3). Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleVisitor:
		return 1
	case RoleHost:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r.Rank() > 0
}

// HasPermission holds iff role ranks at least as high as required.
func HasPermission(role, required Role) bool {
	return role.Valid() && role.Rank() >= required.Rank()
}

type User struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Email       string    `gorm:"index" json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `gorm:"not null;index" json:"role"`
}

// Name returns the display name, or a placeholder when it was never set.
func (u *User) Name() string {
	if u.DisplayName == "" {
		return AnonymousName
	}
	return u.DisplayName
}

const AnonymousName = "Anonymous"
