package analyzer

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC streams frame by frame. Frames rarely
// align with chunk boundaries, so samples left over from the last
// parsed frame are carried into the next read.
type FLACDecoder struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	length     int64
	leftover   []float64
}

// NewFLACDecoder opens filename and parses the stream info block.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("creating FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:     stream,
		file:       f,
		sampleRate: int(stream.Info.SampleRate),
		length:     int64(stream.Info.NSamples),
	}, nil
}

// ReadChunk reads up to n mono samples, averaging subframes on
// multi-channel streams.
func (d *FLACDecoder) ReadChunk(n int) ([]float64, error) {
	samples := make([]float64, 0, n)

	if len(d.leftover) > 0 {
		take := min(n, len(d.leftover))
		samples = append(samples, d.leftover[:take]...)
		d.leftover = d.leftover[take:]
	}

	for len(samples) < n {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				if len(samples) == 0 {
					return nil, io.EOF
				}

				return samples, nil
			}

			return nil, fmt.Errorf("parsing FLAC frame: %w", err)
		}

		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		frameLen := len(frame.Subframes[0].Samples)

		for i := 0; i < frameLen; i++ {
			var sum int64
			for _, sub := range frame.Subframes {
				sum += int64(sub.Samples[i])
			}

			mono := float64(sum) / float64(len(frame.Subframes)) / maxVal

			if len(samples) < n {
				samples = append(samples, mono)
			} else {
				d.leftover = append(d.leftover, mono)
			}
		}
	}

	return samples, nil
}

func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

func (d *FLACDecoder) Length() int64 {
	return d.length
}

func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}

	if d.file != nil {
		return d.file.Close()
	}

	return nil
}
