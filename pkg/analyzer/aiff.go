package analyzer

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// AIFFDecoder decodes AIFF/AIFC files.
type AIFFDecoder struct {
	decoder    *aiff.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
	length     int64
}

// NewAIFFDecoder opens filename and reads the COMM chunk.
func NewAIFFDecoder(filename string) (*AIFFDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := aiff.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()

		return nil, fmt.Errorf("%s: invalid AIFF file", filename)
	}

	decoder.ReadInfo()

	format := decoder.Format()
	if format == nil {
		f.Close()

		return nil, fmt.Errorf("%s: missing AIFF format info", filename)
	}

	return &AIFFDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: format.SampleRate,
		bitDepth:   int(decoder.BitDepth),
		numChans:   format.NumChannels,
		length:     int64(decoder.NumSampleFrames),
	}, nil
}

// ReadChunk reads up to n mono samples, averaging channels on
// multi-channel audio.
func (d *AIFFDecoder) ReadChunk(n int) ([]float64, error) {
	intBuf := &audio.IntBuffer{
		Data:   make([]int, n*d.numChans),
		Format: d.decoder.Format(),
	}

	read, err := d.decoder.PCMBuffer(intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading PCM buffer: %w", err)
	}

	if read == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))
	frames := read / d.numChans
	samples := make([]float64, frames)

	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < d.numChans; ch++ {
			sum += float64(intBuf.Data[i*d.numChans+ch]) / maxVal
		}

		samples[i] = sum / float64(d.numChans)
	}

	return samples, nil
}

func (d *AIFFDecoder) SampleRate() int {
	return d.sampleRate
}

func (d *AIFFDecoder) Length() int64 {
	return d.length
}

func (d *AIFFDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}

	return nil
}
