package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVRecorder streams PCM packets straight into a WAV file. Each
// packet is written as it arrives; closing the input channel rewrites
// the header with final sizes.
type WAVRecorder struct {
	cfg   RecorderConfig
	input <-chan []byte

	file    *os.File
	enc     *wav.Encoder
	written atomic.Int64

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewWAVRecorder creates a recorder writing cfg.Path as 16-bit PCM
// WAV.
func NewWAVRecorder(cfg RecorderConfig, input <-chan []byte) (*WAVRecorder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}

	return &WAVRecorder{cfg: cfg, input: input}, nil
}

// Start begins consuming the input channel. Must be called before any
// packets are sent.
func (r *WAVRecorder) Start(ctx context.Context) error {
	if r.file != nil {
		return errors.New("recorder already started")
	}

	file, err := os.Create(r.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file %s: %w", r.cfg.Path, err)
	}

	r.file = file
	r.enc = wav.NewEncoder(file, r.cfg.SampleRate, 16, r.cfg.Channels, 1)

	r.wg.Go(func() {
		defer r.finalize()

		for {
			select {
			case data, ok := <-r.input:
				if !ok {
					return
				}

				if err := r.writePacket(data); err != nil {
					r.setError(err)

					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func (r *WAVRecorder) writePacket(data []byte) error {
	samples := BytesToInt16(data)
	if len(samples) == 0 {
		return nil
	}

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Data: ints,
		Format: &audio.Format{
			NumChannels: r.cfg.Channels,
			SampleRate:  r.cfg.SampleRate,
		},
		SourceBitDepth: 16,
	}

	if err := r.enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}

	r.written.Add(int64(len(data)))

	return nil
}

// finalize closes the encoder so the RIFF header carries the real
// chunk sizes, then closes the file.
func (r *WAVRecorder) finalize() {
	if err := r.enc.Close(); err != nil {
		r.setError(fmt.Errorf("failed to finalize WAV file: %w", err))
	}

	if err := r.file.Close(); err != nil {
		r.setError(fmt.Errorf("failed to close WAV file: %w", err))
	}

	slog.Info("recording complete", "output", r.cfg.Path, "pcmBytes", r.written.Load())
}

// Wait blocks until the input channel is drained and the file is
// finalized.
func (r *WAVRecorder) Wait() error {
	r.wg.Wait()

	return r.err
}

func (r *WAVRecorder) BytesWritten() int64 {
	return r.written.Load()
}

func (r *WAVRecorder) Path() string {
	return r.cfg.Path
}

func (r *WAVRecorder) setError(err error) {
	r.errOnce.Do(func() {
		r.err = err
		slog.Error("wav recorder error", "error", err)
	})
}
