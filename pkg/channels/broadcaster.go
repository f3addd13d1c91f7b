package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// subscriber holds one output channel and its send policy.
type subscriber[T any] struct {
	ch       chan<- T
	timeout  *time.Duration // nil sends without blocking
	inactive atomic.Bool
	dropped  atomic.Int32
}

func (s *subscriber[T]) send(msg T) {
	if s.inactive.Load() {
		s.dropped.Add(1)

		return
	}

	var err error
	if s.timeout != nil {
		err = SendWithTimeout(s.ch, msg, *s.timeout)
	} else {
		err = SendNonBlock(s.ch, msg)
	}

	if err != nil {
		s.dropped.Add(1)

		// A closed channel never comes back; stop sending to it.
		if errors.Is(err, ErrChannelClosed) {
			s.inactive.Store(true)
		}
	}
}

// Broadcaster fans messages from a single input channel out to every
// subscriber. The capture pipeline feeds it PCM chunks so the
// recorders and the live meter each get their own copy; a slow
// subscriber drops chunks rather than stalling the device callback.
//
// On context cancellation the input channel is closed and buffered
// messages are drained to subscribers before Wait returns.
type Broadcaster[T any] struct {
	subscribers []*subscriber[T]
	input       chan T
	started     atomic.Bool
	wg          sync.WaitGroup
}

// NewBroadcaster creates an empty Broadcaster for messages of type T.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers ch to receive every broadcast message. Sends to
// it never block; messages are dropped when ch is full. Must be called
// before Run and is not safe concurrently with it.
func (b *Broadcaster[T]) Subscribe(ch chan<- T) error {
	if ch == nil {
		return fmt.Errorf("subscriber channel cannot be nil")
	}

	b.subscribers = append(b.subscribers, &subscriber[T]{ch: ch})

	return nil
}

// SubscribeWithTimeout registers ch with a bounded blocking send.
// Messages are dropped when a send does not complete within timeout.
// Must be called before Run and is not safe concurrently with it.
func (b *Broadcaster[T]) SubscribeWithTimeout(ch chan<- T, timeout time.Duration) error {
	if ch == nil {
		return fmt.Errorf("subscriber channel cannot be nil")
	}

	if timeout <= 0 {
		return fmt.Errorf("send timeout must be positive, got %v", timeout)
	}

	b.subscribers = append(b.subscribers, &subscriber[T]{ch: ch, timeout: &timeout})

	return nil
}

// Run starts the broadcast loop and returns the input channel. The
// channel is owned by the Broadcaster and is closed when ctx is
// cancelled; messages buffered at that point still reach subscribers,
// and every subscriber channel is closed once the drain completes so
// consumers ranging over them terminate.
func (b *Broadcaster[T]) Run(ctx context.Context) (chan<- T, error) {
	if b.started.Load() {
		return nil, fmt.Errorf("broadcaster already started")
	}

	if len(b.subscribers) == 0 {
		return nil, fmt.Errorf("no subscribers registered")
	}

	b.input = make(chan T, len(b.subscribers)*2)

	b.wg.Go(func() {
		for msg := range b.input {
			for _, sub := range b.subscribers {
				sub.send(msg)
			}
		}

		for _, sub := range b.subscribers {
			if !sub.inactive.Load() {
				close(sub.ch)
			}
		}
	})

	b.started.Store(true)

	go func() {
		<-ctx.Done()
		close(b.input)
		b.wg.Wait()
	}()

	return b.input, nil
}

// Wait blocks until the broadcast loop has drained after cancellation.
// Safe to call from multiple goroutines.
func (b *Broadcaster[T]) Wait() {
	b.wg.Wait()
}

// SubscriberStats reports per-subscriber delivery health.
type SubscriberStats struct {
	Dropped  int
	Inactive bool
}

// Stats returns delivery counters in subscription order.
func (b *Broadcaster[T]) Stats() []SubscriberStats {
	stats := make([]SubscriberStats, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		stats = append(stats, SubscriberStats{
			Dropped:  int(sub.dropped.Load()),
			Inactive: sub.inactive.Load(),
		})
	}

	return stats
}
