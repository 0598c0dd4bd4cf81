package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Badsnus/festival-booking/internal/domain/dto"
	webpush "github.com/SherClockHolmes/webpush-go"
)

type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
}

// WebPush delivers to a browser push subscription stored as JSON in the
// subscription token. The payload is the message itself, which the service
// worker renders.
type WebPush struct {
	cfg WebPushConfig
}

func NewWebPush(cfg WebPushConfig) *WebPush {
	if cfg.TTL <= 0 {
		cfg.TTL = 3600
	}
	return &WebPush{cfg: cfg}
}

func (w *WebPush) Send(ctx context.Context, token string, message dto.PushMessage) error {
	var subscription webpush.Subscription
	if err := json.Unmarshal([]byte(token), &subscription); err != nil {
		return fmt.Errorf("invalid webpush subscription: %w", err)
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &subscription, &webpush.Options{
		Subscriber:      w.cfg.Subscriber,
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
		TTL:             w.cfg.TTL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service responded %s", resp.Status)
	}
	return nil
}
