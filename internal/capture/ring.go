package capture

import (
	"encoding/binary"
	"sync"
)

// SampleRing is a fixed-capacity circular buffer of int16 samples. The
// device callback path writes into it while the live view reads the
// most recent window, so reads take a shared lock and writes an
// exclusive one. It implements uictl.Levels[int16].
type SampleRing struct {
	samples []int16
	head    int // next write position
	count   int // valid samples, up to capacity
	mu      sync.RWMutex
}

// NewSampleRing creates a ring holding capacity samples.
func NewSampleRing(capacity int) *SampleRing {
	return &SampleRing{samples: make([]int16, capacity)}
}

// Write appends samples, overwriting the oldest once full. Single
// writer assumed.
func (r *SampleRing) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.samples)

	for _, sample := range samples {
		r.samples[r.head] = sample
		r.head = (r.head + 1) % capacity

		if r.count < capacity {
			r.count++
		}
	}
}

// WriteBytes converts S16LE bytes and appends them.
func (r *SampleRing) WriteBytes(data []byte) {
	r.Write(BytesToInt16(data))
}

// ReadSamples returns up to n most recent samples in chronological
// order, fewer when the ring holds less.
func (r *SampleRing) ReadSamples(n int) []int16 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 || n <= 0 {
		return nil
	}

	if n > r.count {
		n = r.count
	}

	result := make([]int16, n)
	capacity := len(r.samples)

	// head is the next write position, so the n most recent samples
	// start at head-n.
	start := (r.head - n + capacity) % capacity

	for i := 0; i < n; i++ {
		result[i] = r.samples[(start+i)%capacity]
	}

	return result
}

// Read returns the full window of buffered samples, oldest first.
func (r *SampleRing) Read() []int16 {
	return r.ReadSamples(len(r.samples))
}

// Count returns the number of valid samples in the ring.
func (r *SampleRing) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

// BytesToInt16 converts S16LE bytes to int16 samples. A trailing odd
// byte is dropped.
func BytesToInt16(data []byte) []int16 {
	numSamples := len(data) / 2
	if numSamples == 0 {
		return nil
	}

	samples := make([]int16, numSamples)

	for i := 0; i < numSamples; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return samples
}
