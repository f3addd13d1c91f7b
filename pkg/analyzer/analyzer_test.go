package analyzer_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleftbit/waveview/pkg/analyzer"
)

func TestParseStat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    analyzer.Stat
		wantErr bool
	}{
		{name: "empty means peak", in: "", want: analyzer.StatPeak},
		{name: "peak", in: "peak", want: analyzer.StatPeak},
		{name: "rms", in: "rms", want: analyzer.StatRMS},
		{name: "unknown", in: "loudness", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := analyzer.ParseStat(tt.in)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenDispatch(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := analyzer.Open("notes.txt")
		assert.ErrorIs(t, err, analyzer.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := analyzer.Open(filepath.Join(t.TempDir(), "missing.wav"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("formats cover the dispatch table", func(t *testing.T) {
		assert.Contains(t, analyzer.Formats(), ".wav")
		assert.Contains(t, analyzer.Formats(), ".mp3")
		assert.Contains(t, analyzer.Formats(), ".flac")
		assert.Contains(t, analyzer.Formats(), ".ogg")
		assert.Contains(t, analyzer.Formats(), ".aiff")
	})
}

func TestWAVDecoder(t *testing.T) {
	t.Run("mono metadata and samples", func(t *testing.T) {
		data := make([]int, 500)
		for i := range data {
			data[i] = 16384
		}

		path := writeWAV(t, "mono.wav", data, 44100, 1)

		dec, err := analyzer.NewWAVDecoder(path)
		require.NoError(t, err)

		defer dec.Close()

		assert.Equal(t, 44100, dec.SampleRate())
		assert.Equal(t, int64(500), dec.Length())

		chunk, err := dec.ReadChunk(200)
		require.NoError(t, err)
		require.Len(t, chunk, 200)
		assert.InDelta(t, 0.5, chunk[0], 0.001)
	})

	t.Run("stereo downmixes by averaging", func(t *testing.T) {
		// Interleaved L/R: left 1000, right 3000.
		data := make([]int, 200)
		for i := 0; i < len(data); i += 2 {
			data[i] = 1000
			data[i+1] = 3000
		}

		path := writeWAV(t, "stereo.wav", data, 44100, 2)

		dec, err := analyzer.NewWAVDecoder(path)
		require.NoError(t, err)

		defer dec.Close()

		assert.Equal(t, int64(100), dec.Length())

		chunk, err := dec.ReadChunk(50)
		require.NoError(t, err)
		require.Len(t, chunk, 50)
		assert.InDelta(t, 2000.0/32767.0, chunk[0], 0.001)
	})

	t.Run("eof after the data runs out", func(t *testing.T) {
		path := writeWAV(t, "tiny.wav", []int{100, 200, 300}, 8000, 1)

		dec, err := analyzer.NewWAVDecoder(path)
		require.NoError(t, err)

		defer dec.Close()

		_, err = dec.ReadChunk(10)
		require.NoError(t, err)

		_, err = dec.ReadChunk(10)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.wav")
		require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))

		_, err := analyzer.NewWAVDecoder(path)
		assert.Error(t, err)
	})
}

func TestAIFFDecoder(t *testing.T) {
	data := make([]int, 300)
	for i := range data {
		data[i] = 8192
	}

	path := writeAIFF(t, "mono.aiff", data, 22050, 1)

	dec, err := analyzer.NewAIFFDecoder(path)
	require.NoError(t, err)

	defer dec.Close()

	assert.Equal(t, 22050, dec.SampleRate())
	assert.Equal(t, int64(300), dec.Length())

	chunk, err := dec.ReadChunk(100)
	require.NoError(t, err)
	require.Len(t, chunk, 100)
	assert.InDelta(t, 0.25, chunk[0], 0.001)
}

func TestAnalyzerSamples(t *testing.T) {
	ctx := context.Background()

	t.Run("peak buckets follow the envelope", func(t *testing.T) {
		// First half at half amplitude, second half near full scale.
		data := make([]int, 2000)
		for i := range data {
			if i < 1000 {
				data[i] = 16384
			} else {
				data[i] = 32700
			}
		}

		path := writeWAV(t, "ramp.wav", data, 44100, 1)

		a := analyzer.New()
		a.Normalize = false

		values, err := a.Samples(ctx, path, 2)
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.InDelta(t, 0.5, values[0], 0.01)
		assert.InDelta(t, 1.0, values[1], 0.01)
	})

	t.Run("normalization lifts the loudest bucket to one", func(t *testing.T) {
		data := make([]int, 1000)
		for i := range data {
			data[i] = 8192 // quiet throughout
		}

		path := writeWAV(t, "quiet.wav", data, 44100, 1)

		values, err := analyzer.New().Samples(ctx, path, 4)
		require.NoError(t, err)
		require.Len(t, values, 4)

		for _, v := range values {
			assert.InDelta(t, 1.0, v, 0.001)
		}
	})

	t.Run("rms sits below peak for spiky audio", func(t *testing.T) {
		data := make([]int, 1000)
		data[500] = 32700 // single transient in silence

		path := writeWAV(t, "spike.wav", data, 44100, 1)

		peaky := &analyzer.Analyzer{Stat: analyzer.StatPeak}
		rmsy := &analyzer.Analyzer{Stat: analyzer.StatRMS}

		peaks, err := peaky.Samples(ctx, path, 1)
		require.NoError(t, err)

		rms, err := rmsy.Samples(ctx, path, 1)
		require.NoError(t, err)

		require.Len(t, peaks, 1)
		require.Len(t, rms, 1)
		assert.Greater(t, peaks[0], 0.9)
		assert.Less(t, rms[0], 0.1)
	})

	t.Run("short audio returns one value per sample", func(t *testing.T) {
		path := writeWAV(t, "short.wav", []int{100, 200, 300, 400, 500}, 8000, 1)

		values, err := analyzer.New().Samples(ctx, path, 100)
		require.NoError(t, err)
		assert.Len(t, values, 5)
	})

	t.Run("zero count never touches the file", func(t *testing.T) {
		values, err := analyzer.New().Samples(ctx, filepath.Join(t.TempDir(), "missing.wav"), 0)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("missing file surfaces not-exist", func(t *testing.T) {
		_, err := analyzer.New().Samples(ctx, filepath.Join(t.TempDir(), "missing.wav"), 10)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("cancellation aborts the fold", func(t *testing.T) {
		data := make([]int, 50000)
		path := writeWAV(t, "long.wav", data, 44100, 1)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := analyzer.New().Samples(cancelled, path, 100)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("aiff goes through the same pipeline", func(t *testing.T) {
		data := make([]int, 800)
		for i := range data {
			data[i] = 16000
		}

		path := writeAIFF(t, "pipeline.aiff", data, 44100, 1)

		values, err := analyzer.New().Samples(ctx, path, 8)
		require.NoError(t, err)
		assert.Len(t, values, 8)
	})
}

// writeWAV writes 16-bit PCM test audio and returns its path. data is
// interleaved when numChans > 1.
func writeWAV(t *testing.T, name string, data []int, sampleRate, numChans int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}

	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

// writeAIFF writes 16-bit PCM test audio and returns its path.
func writeAIFF(t *testing.T, name string, data []int, sampleRate, numChans int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := aiff.NewEncoder(f, sampleRate, 16, numChans)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}

	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}
