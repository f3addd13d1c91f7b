package analyzer

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder decodes RIFF/WAVE files.
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
}

// NewWAVDecoder opens filename and positions the decoder at the PCM
// data.
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()

		return nil, fmt.Errorf("%s: invalid WAV file", filename)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()

		return nil, fmt.Errorf("seeking to PCM data: %w", err)
	}

	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   int(decoder.BitDepth),
		numChans:   int(decoder.NumChans),
	}, nil
}

// ReadChunk reads up to n mono samples, averaging channels on
// multi-channel audio.
func (d *WAVDecoder) ReadChunk(n int) ([]float64, error) {
	intBuf := &audio.IntBuffer{
		Data: make([]int, n*d.numChans),
		Format: &audio.Format{
			NumChannels: d.numChans,
			SampleRate:  d.sampleRate,
		},
	}

	read, err := d.decoder.PCMBuffer(intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading PCM buffer: %w", err)
	}

	if read == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))

	if d.numChans == 1 {
		samples := make([]float64, read)
		for i := 0; i < read; i++ {
			samples[i] = float64(intBuf.Data[i]) / maxVal
		}

		return samples, nil
	}

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

func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// Length derives the mono sample count from the PCM chunk size.
func (d *WAVDecoder) Length() int64 {
	bytesPerSample := int64(d.bitDepth / 8)
	if bytesPerSample == 0 || d.numChans == 0 {
		return 0
	}

	return d.decoder.PCMLen() / bytesPerSample / int64(d.numChans)
}

func (d *WAVDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}

	return nil
}
