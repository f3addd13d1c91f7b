package analyzer

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG layer 3 files. go-mp3 always outputs
// interleaved 16-bit little-endian stereo, 4 bytes per frame.
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
}

// NewMP3Decoder opens filename for decoding.
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("creating MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// ReadChunk reads up to n mono samples, averaging the two channels.
func (d *MP3Decoder) ReadChunk(n int) ([]float64, error) {
	buf := make([]byte, n*4)

	read, err := d.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading MP3 data: %w", err)
	}

	if read == 0 {
		return nil, io.EOF
	}

	frames := read / 4
	samples := make([]float64, frames)

	for i := 0; i < frames; i++ {
		left := int16(buf[i*4]) | (int16(buf[i*4+1]) << 8)
		right := int16(buf[i*4+2]) | (int16(buf[i*4+3]) << 8)

		samples[i] = (float64(left) + float64(right)) / 2 / 32768.0
	}

	return samples, nil
}

func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// Length derives the mono sample count from the decoded byte length,
// 0 when the source size is unknown.
func (d *MP3Decoder) Length() int64 {
	n := d.decoder.Length()
	if n <= 0 {
		return 0
	}

	return n / 4
}

func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}

	return nil
}
