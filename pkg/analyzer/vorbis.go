package analyzer

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis files.
type VorbisDecoder struct {
	reader     *oggvorbis.Reader
	file       *os.File
	sampleRate int
	channels   int
}

// NewVorbisDecoder opens filename for decoding.
func NewVorbisDecoder(filename string) (*VorbisDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("creating Vorbis decoder: %w", err)
	}

	return &VorbisDecoder{
		reader:     reader,
		file:       f,
		sampleRate: reader.SampleRate(),
		channels:   reader.Channels(),
	}, nil
}

// ReadChunk reads up to n mono samples, averaging interleaved
// channels.
func (d *VorbisDecoder) ReadChunk(n int) ([]float64, error) {
	buf := make([]float32, n*d.channels)

	read, err := d.reader.Read(buf)
	if read == 0 {
		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("vorbis read returned no samples")
	}

	// Only complete frames are averaged; a trailing partial frame
	// would skew the mix.
	frames := read / d.channels
	samples := make([]float64, frames)

	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < d.channels; ch++ {
			sum += float64(buf[i*d.channels+ch])
		}

		samples[i] = sum / float64(d.channels)
	}

	return samples, nil
}

func (d *VorbisDecoder) SampleRate() int {
	return d.sampleRate
}

// Length reports the per-channel sample count from the stream's last
// granule position.
func (d *VorbisDecoder) Length() int64 {
	return d.reader.Length()
}

func (d *VorbisDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}

	return nil
}
