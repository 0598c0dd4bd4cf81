// Package live turns a one-shot query into a stream of full result sets that
// is re-evaluated whenever a change is announced on one of its topics.
package live

import (
	"context"
	"errors"
)

// Feed announces changes on named topics. The returned channel must be closed
// once ctx is done.
type Feed interface {
	Subscribe(ctx context.Context, topics ...string) (<-chan string, error)
}

type Query[T any] func(ctx context.Context) (T, error)

// Stream delivers the latest result of a query. Slow readers only ever see
// the most recent snapshot; intermediate ones are dropped.
type Stream[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
}

// Watch evaluates query once immediately and again after every change on
// topics, until ctx is cancelled or Unsubscribe is called. onError, when not
// nil, receives query failures; the stream stays open after a failure.
func Watch[T any](ctx context.Context, feed Feed, query Query[T], onError func(error), topics ...string) (*Stream[T], error) {
	if len(topics) == 0 {
		return nil, errors.New("live: no topics to watch")
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := feed.Subscribe(ctx, topics...)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Stream[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, changes, query, onError)
	return s, nil
}

// Updates is closed when the stream ends.
func (s *Stream[T]) Updates() <-chan T {
	return s.updates
}

// Done is closed when the stream ends.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe stops the stream and waits for its goroutine to exit.
func (s *Stream[T]) Unsubscribe() {
	s.cancel()
	<-s.done
}

func (s *Stream[T]) run(ctx context.Context, changes <-chan string, query Query[T], onError func(error)) {
	defer close(s.done)
	defer close(s.updates)

	s.push(ctx, query, onError)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			s.push(ctx, query, onError)
		}
	}
}

func (s *Stream[T]) push(ctx context.Context, query Query[T], onError func(error)) {
	value, err := query(ctx)
	if err != nil {
		if ctx.Err() == nil && onError != nil {
			onError(err)
		}
		return
	}

	// run is the only sender, so after draining a stale value the send cannot block.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- value:
	case <-ctx.Done():
	}
}
