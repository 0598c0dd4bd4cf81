package push

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/dto"
)

type mailer interface {
	SendNotification(to, subject, body string) error
}

// Email delivers to the address stored as the subscription token.
type Email struct {
	mailer mailer
}

func NewEmail(mailer mailer) *Email {
	return &Email{mailer: mailer}
}

func (e *Email) Send(_ context.Context, token string, message dto.PushMessage) error {
	return e.mailer.SendNotification(token, message.Title, message.Body)
}
