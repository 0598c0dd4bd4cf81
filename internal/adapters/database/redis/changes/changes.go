package changes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/redis/go-redis/v9"
)

const prefix = "changes:"

// Feed announces writes to a collection over redis pub/sub so every instance
// can refresh its live queries.
type Feed struct {
	redis *redis.Client
}

func NewFeed(client *redis.Client) *Feed {
	return &Feed{
		redis: client,
	}
}

func channel(collection string) string {
	return fmt.Sprintf("%s%s", prefix, collection)
}

func (f *Feed) Publish(ctx context.Context, collection string) error {
	return errorz.Store(f.redis.Publish(ctx, channel(collection), collection).Err())
}

// Subscribe returns a channel of collection names that changed. Bursts are
// coalesced: a pending notification is not duplicated. The channel is closed
// once ctx is done.
func (f *Feed) Subscribe(ctx context.Context, collections ...string) (<-chan string, error) {
	channels := make([]string, 0, len(collections))
	for _, collection := range collections {
		channels = append(channels, channel(collection))
	}

	pubsub := f.redis.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errorz.Store(err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- strings.TrimPrefix(msg.Channel, prefix):
				default:
				}
			}
		}
	}()
	return out, nil
}
