package waveform

import (
	"fmt"
	"math"
	"strings"
)

// Shaper builds a renderable Shape from amplitude samples. A Shaper is
// a rendering strategy; implementations are interchangeable and chosen
// by the caller at construction time.
type Shaper interface {
	Name() string
	Build(samples []float64, cfg Configuration, width, height int) Shape
}

// Shapers lists the built-in rendering strategies in cycle order.
func Shapers() []Shaper {
	return []Shaper{LinearShaper{}, BrailleShaper{}, CircularShaper{}}
}

// ShaperByName returns the built-in Shaper with the given name. The
// empty string selects the linear default.
func ShaperByName(name string) (Shaper, error) {
	if name == "" {
		return LinearShaper{}, nil
	}

	for _, s := range Shapers() {
		if s.Name() == name {
			return s, nil
		}
	}

	return nil, fmt.Errorf("unknown waveform style %q", name)
}

// Shape is the rune grid a Shaper produced, one string per terminal
// row. An empty Shape reports that there is nothing to draw yet, which
// lets the view fall back to its placeholder.
type Shape struct {
	rows  []string
	empty bool
}

func newShape(rows []string) Shape {
	return Shape{rows: rows}
}

func emptyShape() Shape {
	return Shape{empty: true}
}

// IsEmpty reports whether the shape holds no drawable content.
func (s Shape) IsEmpty() bool {
	return s.empty
}

// Rows returns the shape's rows, top to bottom, without styling.
func (s Shape) Rows() []string {
	return s.rows
}

func (s Shape) String() string {
	return strings.Join(s.rows, "\n")
}

// Columns reduces samples to one peak per viewport column and applies
// the configured edge damping. Shapers and image rendering share this
// so every output surface agrees on column amplitudes.
func Columns(samples []float64, cfg Configuration, width int) []float64 {
	return applyDamping(bucketPeaks(samples, width), cfg.Damping)
}

// bucketPeaks folds samples into n buckets, keeping the absolute peak
// of each bucket. Sample i lands in bucket i*n/len(samples), so short
// sample sets spread across the full width instead of clustering left.
func bucketPeaks(samples []float64, n int) []float64 {
	if n <= 0 || len(samples) == 0 {
		return nil
	}

	peaks := make([]float64, n)

	for i, s := range samples {
		if s < 0 {
			s = -s
		}

		b := i * n / len(samples)
		if s > peaks[b] {
			peaks[b] = s
		}
	}

	return peaks
}

// applyDamping fades columns toward zero at the configured sides using
// a square-root ease from the edge inward. Mutates and returns cols.
func applyDamping(cols []float64, d Damping) []float64 {
	if !d.enabled() || len(cols) == 0 {
		return cols
	}

	fade := int(float64(len(cols)) * d.Percentage)
	if fade > len(cols)/2 {
		fade = len(cols) / 2
	}

	for i := 0; i < fade; i++ {
		f := math.Sqrt(float64(i) / float64(fade))

		if d.Sides == DampBoth || d.Sides == DampLeft {
			cols[i] *= f
		}

		if d.Sides == DampBoth || d.Sides == DampRight {
			cols[len(cols)-1-i] *= f
		}
	}

	return cols
}

// Level maps a normalized amplitude to a display level in 0..maxLevel.
// Square root scaling keeps quiet passages visible.
func Level(amp float64, maxLevel int) int {
	if amp <= 0 {
		return 0
	}

	if amp > 1 {
		amp = 1
	}

	scaled := int(math.Sqrt(amp) * float64(maxLevel))
	if scaled > maxLevel {
		return maxLevel
	}

	return scaled
}
