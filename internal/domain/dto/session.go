package dto

import "github.com/Badsnus/festival-booking/internal/domain/entity"

// Principal is the identity asserted by the identity provider.
type Principal struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Session is the per-request value object combining who the caller is with
// the role resolved for them at authentication time.
type Session struct {
	Principal
	Role entity.Role `json:"role"`
}

func (s Session) Can(required entity.Role) bool {
	return entity.HasPermission(s.Role, required)
}

func (s Session) Is(role entity.Role) bool {
	return s.Role == role
}

// CanManage reports whether the session may act on the event as its host.
func (s Session) CanManage(event *entity.ClassEvent) bool {
	if s.Is(entity.RoleAdmin) {
		return true
	}
	return s.Can(entity.RoleHost) && event.OwnedBy(s.UserID)
}

// SystemSession is used by operator tooling running with admin authority.
func SystemSession() Session {
	return Session{
		Principal: Principal{UserID: "system", DisplayName: "system"},
		Role:      entity.RoleAdmin,
	}
}
