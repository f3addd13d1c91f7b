// Package channels provides non-blocking channel plumbing for the
// capture pipeline: lossy sends and a broadcaster that fans PCM chunks
// out to recorders and meters without stalling the producer.
package channels

import (
	"errors"
	"time"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrChannelTimeout = errors.New("send timeout")
	ErrChannelFull    = errors.New("channel full")
)

// ReceiveAll drains ch until it is closed or no message arrives within
// idle. A limit of 0 reads without bound.
func ReceiveAll[T any](ch <-chan T, idle time.Duration, limit int) []T {
	var out []T

	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}

			out = append(out, msg)
			if limit > 0 && len(out) >= limit {
				return out
			}

			if !timer.Stop() {
				<-timer.C
			}

			timer.Reset(idle)
		case <-timer.C:
			return out
		}
	}
}
