package capture_test

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleftbit/waveview/internal/capture"
	"github.com/theleftbit/waveview/pkg/analyzer"
)

// pcmBytes encodes samples as the S16LE packets the device callback
// delivers.
func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	return out
}

func sineWave(n int, freq float64, rate int, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(float64(amplitude) * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}

	return out
}

func TestNewRecorder(t *testing.T) {
	t.Parallel()

	input := make(chan []byte)

	t.Run("selects wav by extension", func(t *testing.T) {
		rec, err := capture.NewRecorder(capture.RecorderConfig{Path: "out.wav"}, input)
		require.NoError(t, err)
		assert.IsType(t, &capture.WAVRecorder{}, rec)
	})

	t.Run("selects mp3 by extension", func(t *testing.T) {
		rec, err := capture.NewRecorder(capture.RecorderConfig{Path: "out.mp3"}, input)
		require.NoError(t, err)
		assert.IsType(t, &capture.MP3Recorder{}, rec)
	})

	t.Run("rejects unknown extensions", func(t *testing.T) {
		_, err := capture.NewRecorder(capture.RecorderConfig{Path: "out.flac"}, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported recording format")
	})

	t.Run("rejects nil input", func(t *testing.T) {
		_, err := capture.NewRecorder(capture.RecorderConfig{Path: "out.wav"}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects stereo", func(t *testing.T) {
		_, err := capture.NewRecorder(capture.RecorderConfig{Path: "out.wav", Channels: 2}, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only mono")
	})
}

func TestWAVRecorder_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "take.wav")
	input := make(chan []byte)

	rec, err := capture.NewWAVRecorder(capture.RecorderConfig{Path: path}, input)
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))

	samples := []int16{0, 1000, -1000, 32767, -32768, 512}
	input <- pcmBytes(samples[:3])
	input <- pcmBytes(samples[3:])

	close(input)
	require.NoError(t, rec.Wait())
	assert.Equal(t, int64(len(samples)*2), rec.BytesWritten())
	assert.Equal(t, path, rec.Path())

	dec, err := analyzer.NewWAVDecoder(path)
	require.NoError(t, err)

	defer dec.Close()

	assert.Equal(t, capture.DefaultSampleRate, dec.SampleRate())
	assert.Equal(t, int64(len(samples)), dec.Length())

	decoded, err := dec.ReadChunk(len(samples))
	require.NoError(t, err)
	require.Len(t, decoded, len(samples))

	for i, want := range samples {
		assert.InDelta(t, float64(want)/32767.0, decoded[i], 0.001, "sample %d", i)
	}
}

func TestWAVRecorder_BytesWritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "take.wav")
	input := make(chan []byte)

	rec, err := capture.NewWAVRecorder(capture.RecorderConfig{Path: path}, input)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rec.Start(ctx))
	assert.Zero(t, rec.BytesWritten())

	input <- make([]byte, 100)
	require.Eventually(t, func() bool {
		return rec.BytesWritten() == 100
	}, time.Second, 5*time.Millisecond)

	input <- make([]byte, 200)
	require.Eventually(t, func() bool {
		return rec.BytesWritten() == 300
	}, time.Second, 5*time.Millisecond)

	close(input)
	require.NoError(t, rec.Wait())
	assert.Equal(t, int64(300), rec.BytesWritten())
}

func TestWAVRecorder_StartTwice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "take.wav")
	input := make(chan []byte)

	rec, err := capture.NewWAVRecorder(capture.RecorderConfig{Path: path}, input)
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))

	err = rec.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	close(input)
	require.NoError(t, rec.Wait())
}

func TestMP3Recorder_ProducesDecodableFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "take.mp3")
	input := make(chan []byte)

	rec, err := capture.NewMP3Recorder(capture.RecorderConfig{Path: path}, input)
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))

	// One second of a loud tone, sent in callback-sized packets.
	tone := sineWave(capture.DefaultSampleRate, 440, capture.DefaultSampleRate, 26000)
	for start := 0; start < len(tone); start += 1600 {
		end := min(start+1600, len(tone))
		input <- pcmBytes(tone[start:end])
	}

	close(input)
	require.NoError(t, rec.Wait())
	assert.Equal(t, int64(len(tone)*2), rec.BytesWritten())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(1000), "suspiciously small MP3 output")

	dec, err := analyzer.NewMP3Decoder(path)
	require.NoError(t, err)

	defer dec.Close()

	assert.Equal(t, capture.DefaultSampleRate, dec.SampleRate())

	// The codec is lossy and pads the stream edges, so just confirm a
	// loud signal survives.
	peak := 0.0
	for {
		chunk, err := dec.ReadChunk(4096)
		if err != nil {
			break
		}

		for _, s := range chunk {
			peak = math.Max(peak, math.Abs(s))
		}
	}

	assert.Greater(t, peak, 0.1)
}
