package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultBufferThreshold is the PCM byte count batched before an
	// MP3 encode pass: 2048 mono samples, about 128ms at 16kHz.
	DefaultBufferThreshold = 4096
)

// RecorderConfig configures a recorder writing the capture stream to
// disk.
type RecorderConfig struct {
	// SampleRate in Hz of the incoming PCM stream.
	SampleRate int

	// Channels in the incoming stream. Only mono is captured today;
	// the MP3 path duplicates it to stereo internally.
	Channels int

	// Path is the output file; its extension selects the format.
	Path string

	// BufferThreshold is the number of PCM bytes batched before an
	// encode pass. Only the MP3 recorder batches.
	BufferThreshold int
}

// Validate returns an error if the config cannot produce a recording.
func (c RecorderConfig) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.Channels != 1 {
		return errors.New("only mono (1 channel) is supported")
	}

	if c.Path == "" {
		return errors.New("output path cannot be empty")
	}

	if c.BufferThreshold <= 0 {
		return errors.New("buffer threshold must be positive")
	}

	return nil
}

// WithDefaults returns the config with defaults applied to zero
// fields.
func (c RecorderConfig) WithDefaults() RecorderConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	if c.BufferThreshold == 0 {
		c.BufferThreshold = DefaultBufferThreshold
	}

	return c
}

// Recorder consumes a channel of raw PCM packets and persists them.
// Start launches the consuming goroutine; closing the input channel
// finalizes the file, and Wait returns once that completes.
type Recorder interface {
	Start(ctx context.Context) error
	Wait() error

	// BytesWritten is the raw PCM byte count consumed so far. Safe for
	// concurrent use; the monitor polls it.
	BytesWritten() int64

	// Path is the output file being written.
	Path() string
}

// NewRecorder selects a recorder implementation from the output
// path's extension.
func NewRecorder(cfg RecorderConfig, input <-chan []byte) (Recorder, error) {
	cfg = cfg.WithDefaults()

	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".wav":
		return NewWAVRecorder(cfg, input)
	case ".mp3":
		return NewMP3Recorder(cfg, input)
	default:
		return nil, fmt.Errorf("unsupported recording format %q (use .wav or .mp3)", filepath.Ext(cfg.Path))
	}
}
