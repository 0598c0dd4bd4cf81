package dto

type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NotifyReport summarises a best-effort dispatch. Failures never fail the call.
// Recipients counts users holding a reservation; Attempted, Delivered and
// Failed count only those with at least one push subscription.
type NotifyReport struct {
	EventID    string `json:"event_id"`
	Remaining  int64  `json:"remaining"`
	Recipients int    `json:"recipients"`
	Attempted  int    `json:"attempted"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
}
