package analyzer

import (
	"context"
	"fmt"
	"io"
	"math"
)

// chunkSize is how many mono samples each decoder read requests.
// Cancellation is checked between chunks, so this also bounds how
// long a cancelled analysis keeps running.
const chunkSize = 8192

// Stat selects the statistic each bucket reports.
type Stat int

const (
	// StatPeak keeps the loudest absolute amplitude per bucket.
	StatPeak Stat = iota
	// StatRMS reports the root mean square amplitude per bucket.
	StatRMS
)

func (s Stat) String() string {
	if s == StatRMS {
		return "rms"
	}

	return "peak"
}

// ParseStat maps a user-supplied statistic name to a Stat. The empty
// string means peak.
func ParseStat(name string) (Stat, error) {
	switch name {
	case "", "peak":
		return StatPeak, nil
	case "rms":
		return StatRMS, nil
	default:
		return 0, fmt.Errorf("unknown statistic %q", name)
	}
}

// Analyzer folds decoded audio into a fixed number of amplitude
// buckets, implementing the waveform view's sample provider contract.
type Analyzer struct {
	// Stat selects peak or RMS buckets.
	Stat Stat

	// Normalize rescales results so the loudest bucket reads 1,
	// keeping quiet recordings visible.
	Normalize bool
}

// New returns an analyzer with the usual settings: peak buckets,
// normalized.
func New() *Analyzer {
	return &Analyzer{Stat: StatPeak, Normalize: true}
}

// Samples decodes source and reduces it to count values in [0, 1].
// Audio shorter than count yields fewer values, one per sample.
// count <= 0 returns an empty set without touching the file.
// Cancelling ctx aborts the analysis between decoder chunks.
func (a *Analyzer) Samples(ctx context.Context, source string, count int) ([]float64, error) {
	if count <= 0 {
		return []float64{}, nil
	}

	dec, err := Open(source)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	values, err := a.fold(ctx, dec, count)
	if err != nil {
		return nil, err
	}

	return a.finish(values), nil
}

// fold picks the streaming path when the decoder knows its length and
// falls back to buffering the whole stream when it does not.
func (a *Analyzer) fold(ctx context.Context, dec Decoder, count int) ([]float64, error) {
	total := dec.Length()
	if total > 0 {
		if int64(count) > total {
			count = int(total)
		}

		return a.foldStream(ctx, dec, count, total)
	}

	all, err := a.readAll(ctx, dec)
	if err != nil {
		return nil, err
	}

	if len(all) == 0 {
		return []float64{}, nil
	}

	if count > len(all) {
		count = len(all)
	}

	return a.foldSlice(all, count), nil
}

func (a *Analyzer) foldStream(ctx context.Context, dec Decoder, count int, total int64) ([]float64, error) {
	acc := newAccumulator(a.Stat, count)

	var index int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", err)
		}

		chunk, err := dec.ReadChunk(chunkSize)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		for _, s := range chunk {
			b := int(index * int64(count) / total)
			// Headers occasionally undercount; clamp instead of
			// dropping the excess.
			if b >= count {
				b = count - 1
			}

			acc.add(b, s)
			index++
		}
	}

	return acc.values(), nil
}

func (a *Analyzer) foldSlice(all []float64, count int) []float64 {
	acc := newAccumulator(a.Stat, count)

	for i, s := range all {
		acc.add(i*count/len(all), s)
	}

	return acc.values()
}

func (a *Analyzer) readAll(ctx context.Context, dec Decoder) ([]float64, error) {
	var all []float64

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", err)
		}

		chunk, err := dec.ReadChunk(chunkSize)
		if err == io.EOF {
			return all, nil
		}

		if err != nil {
			return nil, err
		}

		all = append(all, chunk...)
	}
}

func (a *Analyzer) finish(values []float64) []float64 {
	if !a.Normalize || len(values) == 0 {
		return values
	}

	var peak float64

	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	if peak <= 0 {
		return values
	}

	for i := range values {
		values[i] /= peak
	}

	return values
}

// accumulator collects per-bucket statistics during a fold.
type accumulator struct {
	stat Stat
	peak []float64
	sum  []float64
	n    []int64
}

func newAccumulator(stat Stat, count int) *accumulator {
	acc := &accumulator{stat: stat}

	if stat == StatRMS {
		acc.sum = make([]float64, count)
		acc.n = make([]int64, count)
	} else {
		acc.peak = make([]float64, count)
	}

	return acc
}

func (c *accumulator) add(bucket int, sample float64) {
	if sample < 0 {
		sample = -sample
	}

	if c.stat == StatRMS {
		c.sum[bucket] += sample * sample
		c.n[bucket]++

		return
	}

	if sample > c.peak[bucket] {
		c.peak[bucket] = sample
	}
}

func (c *accumulator) values() []float64 {
	if c.stat != StatRMS {
		return c.peak
	}

	out := make([]float64, len(c.sum))

	for i, sq := range c.sum {
		if c.n[i] > 0 {
			out[i] = math.Sqrt(sq / float64(c.n[i]))
		}
	}

	return out
}
