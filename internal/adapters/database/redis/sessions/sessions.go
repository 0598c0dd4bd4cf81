package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/redis/go-redis/v9"
)

// Storage maps opaque session tokens to the principal that signed in.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

func key(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Get returns nil when the token is unknown or expired.
func (s *Storage) Get(ctx context.Context, token string) (*dto.Principal, error) {
	data, err := s.redis.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errorz.Store(err)
	}
	var principal dto.Principal
	if err = json.Unmarshal(data, &principal); err != nil {
		return nil, errorz.Store(err)
	}
	return &principal, nil
}

func (s *Storage) Set(ctx context.Context, token string, principal dto.Principal, expiration time.Duration) error {
	data, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	return errorz.Store(s.redis.Set(ctx, key(token), data, expiration).Err())
}

func (s *Storage) Clear(ctx context.Context, token string) error {
	return errorz.Store(s.redis.Del(ctx, key(token)).Err())
}
