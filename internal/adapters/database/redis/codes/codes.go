package codes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/redis/go-redis/v9"
)

// Storage keeps one pending sign-in code per email as "code:context".
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

func key(email string) string {
	return fmt.Sprintf("code:%s", email)
}

// Get returns empty strings when no code is pending.
func (s *Storage) Get(ctx context.Context, email string) (string, string, error) {
	codeData, err := s.redis.Get(ctx, key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", nil
		}
		return "", "", errorz.Store(err)
	}
	codeSlice := strings.SplitN(codeData, ":", 2)
	if len(codeSlice) == 1 {
		return codeSlice[0], "", nil
	}
	return codeSlice[0], codeSlice[1], nil
}

func (s *Storage) Set(ctx context.Context, email, code, codeContext string, expiration time.Duration) error {
	err := s.redis.Set(ctx, key(email), fmt.Sprintf("%s:%s", code, codeContext), expiration).Err()
	return errorz.Store(err)
}

func (s *Storage) Clear(ctx context.Context, email string) error {
	return errorz.Store(s.redis.Del(ctx, key(email)).Err())
}
