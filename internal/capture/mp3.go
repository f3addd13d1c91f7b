package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// MP3Recorder batch-encodes PCM packets to MP3 frames as they arrive.
// Packets accumulate until BufferThreshold bytes, then a batch is
// encoded and appended to the output file.
type MP3Recorder struct {
	cfg   RecorderConfig
	input <-chan []byte

	file    *os.File
	enc     *mp3encoder.Encoder
	buffer  []byte
	written atomic.Int64

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewMP3Recorder creates a recorder writing cfg.Path as MP3.
func NewMP3Recorder(cfg RecorderConfig, input <-chan []byte) (*MP3Recorder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}

	return &MP3Recorder{
		cfg:    cfg,
		input:  input,
		buffer: make([]byte, 0, cfg.BufferThreshold),
	}, nil
}

// Start begins consuming the input channel. Must be called before any
// packets are sent.
func (r *MP3Recorder) Start(ctx context.Context) error {
	if r.file != nil {
		return errors.New("recorder already started")
	}

	file, err := os.Create(r.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create MP3 file %s: %w", r.cfg.Path, err)
	}

	r.file = file

	// The encoder is always stereo: shine's mono write path advances
	// its input at the stereo stride and skips every other sample.
	r.enc = mp3encoder.NewEncoder(r.cfg.SampleRate, 2)

	r.wg.Go(func() {
		defer r.finalize()

		for {
			select {
			case data, ok := <-r.input:
				if !ok {
					return
				}

				r.buffer = append(r.buffer, data...)
				r.written.Add(int64(len(data)))

				if len(r.buffer) >= r.cfg.BufferThreshold {
					if err := r.encodeBatch(); err != nil {
						r.setError(err)

						return
					}
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// encodeBatch converts the buffered PCM to stereo int16 and appends
// the encoded frames to the file.
func (r *MP3Recorder) encodeBatch() error {
	if len(r.buffer) == 0 {
		return nil
	}

	mono := BytesToInt16(r.buffer)

	stereo := make([]int16, len(mono)*2)
	for i, sample := range mono {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	slog.Debug("encoding MP3 batch", "monoSamples", len(mono))

	if err := r.enc.Write(r.file, stereo); err != nil {
		return fmt.Errorf("failed to encode MP3 batch: %w", err)
	}

	r.buffer = r.buffer[:0]

	return nil
}

// finalize flushes the trailing partial batch and closes the file.
func (r *MP3Recorder) finalize() {
	if err := r.encodeBatch(); err != nil {
		r.setError(fmt.Errorf("failed to flush MP3 recorder: %w", err))
	}

	if err := r.file.Close(); err != nil {
		r.setError(fmt.Errorf("failed to close MP3 file: %w", err))
	}

	slog.Info("recording complete", "output", r.cfg.Path, "pcmBytes", r.written.Load())
}

// Wait blocks until the input channel is drained and the file is
// finalized.
func (r *MP3Recorder) Wait() error {
	r.wg.Wait()

	return r.err
}

func (r *MP3Recorder) BytesWritten() int64 {
	return r.written.Load()
}

func (r *MP3Recorder) Path() string {
	return r.cfg.Path
}

func (r *MP3Recorder) setError(err error) {
	r.errOnce.Do(func() {
		r.err = err
		slog.Error("mp3 recorder error", "error", err)
	})
}
