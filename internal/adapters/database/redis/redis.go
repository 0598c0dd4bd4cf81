package redis

import (
	"context"
	"fmt"

	"github.com/Badsnus/festival-booking/internal/adapters/database/redis/changes"
	"github.com/Badsnus/festival-booking/internal/adapters/database/redis/codes"
	"github.com/Badsnus/festival-booking/internal/adapters/database/redis/sessions"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Codes    *codes.Storage
	Sessions *sessions.Storage
	Changes  *changes.Feed

	clients []*redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
}

func New(opts Options) (*Client, error) {
	codeStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       1,
	})
	if err := codeStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping codes storage: %w", err)
	}

	sessionStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       2,
	})
	if err := sessionStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping sessions storage: %w", err)
	}

	// Pub/sub channels are global to the server; the DB index does not matter.
	changeFeed := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})
	if err := changeFeed.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping change feed: %w", err)
	}

	return &Client{
		Codes:    codes.NewStorage(codeStorage),
		Sessions: sessions.NewStorage(sessionStorage),
		Changes:  changes.NewFeed(changeFeed),
		clients:  []*redis.Client{codeStorage, sessionStorage, changeFeed},
	}, nil
}

func (c *Client) Close() error {
	var firstErr error
	for _, client := range c.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
