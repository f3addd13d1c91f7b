package channels

import "time"

// SendNonBlock attempts to send msg without blocking. Returns
// ErrChannelFull when the buffer is full and ErrChannelClosed when the
// channel is closed.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// SendWithTimeout sends msg, giving up after timeout. Returns
// ErrChannelTimeout when the deadline passes and ErrChannelClosed when
// the channel is closed.
func SendWithTimeout[T any](ch chan<- T, msg T, timeout time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	case <-time.After(timeout):
		return ErrChannelTimeout
	}
}
