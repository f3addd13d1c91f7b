// Package analyzer extracts normalized waveform samples from audio
// files. It decodes WAV, MP3, FLAC, Ogg Vorbis, and AIFF into mono
// sample streams and folds them into a requested number of buckets,
// which makes it a sample provider for the waveform view.
package analyzer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no decoder
// claims.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder streams one audio file as mono samples.
type Decoder interface {
	// ReadChunk returns up to n samples in [-1, 1], downmixed to
	// mono. It returns io.EOF when the stream ends.
	ReadChunk(n int) ([]float64, error)

	// SampleRate returns the source sample rate in Hz.
	SampleRate() int

	// Length returns the total mono sample count, 0 when unknown.
	Length() int64

	Close() error
}

// Open returns a Decoder for path, chosen by file extension.
func Open(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return NewWAVDecoder(path)
	case ".mp3":
		return NewMP3Decoder(path)
	case ".flac":
		return NewFLACDecoder(path)
	case ".ogg", ".oga":
		return NewVorbisDecoder(path)
	case ".aiff", ".aif", ".aifc":
		return NewAIFFDecoder(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Formats lists the file extensions Open accepts.
func Formats() []string {
	return []string{".wav", ".wave", ".mp3", ".flac", ".ogg", ".oga", ".aiff", ".aif", ".aifc"}
}
