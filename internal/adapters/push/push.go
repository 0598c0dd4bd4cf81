// Package push delivers notifications to a user's subscriptions, one sender
// per channel.
package push

import (
	"context"
	"fmt"

	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
)

// Sender delivers one message to one address on its channel.
type Sender interface {
	Send(ctx context.Context, token string, message dto.PushMessage) error
}

type Dispatcher struct {
	senders map[entity.PushChannel]Sender
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[entity.PushChannel]Sender)}
}

// Register installs sender for channel. Channels without a sender fail every
// delivery, which the notifier logs and skips.
func (d *Dispatcher) Register(channel entity.PushChannel, sender Sender) *Dispatcher {
	d.senders[channel] = sender
	return d
}

func (d *Dispatcher) Send(ctx context.Context, subscription entity.PushSubscription, message dto.PushMessage) error {
	sender, ok := d.senders[subscription.Channel]
	if !ok {
		return fmt.Errorf("no sender configured for channel %q", subscription.Channel)
	}
	return sender.Send(ctx, subscription.Token, message)
}
