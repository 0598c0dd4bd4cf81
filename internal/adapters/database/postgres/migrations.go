package postgres

import "github.com/Badsnus/festival-booking/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.ClassEvent{},
	&entity.Reservation{},
	&entity.RoleApplication{},
	&entity.PushSubscription{},
	&entity.Notification{},
	&entity.Image{},
}
