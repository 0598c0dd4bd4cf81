package entity

// Collections name the change-feed topics that live queries listen on.
const (
	CollectionUsers        = "users"
	CollectionEvents       = "class_events"
	CollectionReservations = "reservations"
	CollectionApplications = "role_applications"
)
