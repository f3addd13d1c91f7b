package channels_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theleftbit/waveview/pkg/channels"
)

func TestSendNonBlock(t *testing.T) {
	t.Run("buffered channel with capacity", func(t *testing.T) {
		ch := make(chan int, 2)
		assert.NoError(t, channels.SendNonBlock(ch, 42))
		assert.Equal(t, 42, <-ch)
	})

	t.Run("full buffer", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 1
		assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelFull)
	})

	t.Run("unbuffered with no receiver", func(t *testing.T) {
		ch := make(chan int)
		assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelFull)
	})

	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan int)
		close(ch)
		assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelClosed)
	})

	t.Run("closed channel keeps buffered data readable", func(t *testing.T) {
		ch := make(chan int, 2)
		ch <- 1
		close(ch)
		assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelClosed)
		assert.Equal(t, 1, <-ch)
	})
}

func TestSendWithTimeout(t *testing.T) {
	t.Run("buffered channel with capacity", func(t *testing.T) {
		ch := make(chan int, 2)
		assert.NoError(t, channels.SendWithTimeout(ch, 42, 10*time.Millisecond))
		assert.Equal(t, 42, <-ch)
	})

	t.Run("unbuffered with receiver", func(t *testing.T) {
		ch := make(chan int)
		go func() { <-ch }()
		assert.NoError(t, channels.SendWithTimeout(ch, 42, 10*time.Millisecond))
	})

	t.Run("times out on a full buffer", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 1
		assert.ErrorIs(t, channels.SendWithTimeout(ch, 42, time.Millisecond), channels.ErrChannelTimeout)
	})

	t.Run("times out with no receiver", func(t *testing.T) {
		ch := make(chan int)
		assert.ErrorIs(t, channels.SendWithTimeout(ch, 42, time.Millisecond), channels.ErrChannelTimeout)
	})

	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan int)
		close(ch)
		assert.ErrorIs(t, channels.SendWithTimeout(ch, 42, 10*time.Millisecond), channels.ErrChannelClosed)
	})
}

func TestReceiveAll(t *testing.T) {
	t.Run("drains a closed channel", func(t *testing.T) {
		ch := make(chan int, 3)
		ch <- 1
		ch <- 2
		close(ch)

		assert.Equal(t, []int{1, 2}, channels.ReceiveAll(ch, 10*time.Millisecond, 0))
	})

	t.Run("stops at the limit", func(t *testing.T) {
		ch := make(chan int, 4)
		for i := 1; i <= 4; i++ {
			ch <- i
		}

		assert.Equal(t, []int{1, 2}, channels.ReceiveAll(ch, 10*time.Millisecond, 2))
	})

	t.Run("returns after the idle window on an open channel", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 7

		start := time.Now()
		got := channels.ReceiveAll(ch, 20*time.Millisecond, 0)
		assert.Equal(t, []int{7}, got)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})
}
