package waveform

import "math"

// DampingSides selects which edges of the waveform fade out.
type DampingSides int

const (
	DampBoth DampingSides = iota
	DampLeft
	DampRight
)

// Damping fades waveform columns toward zero near the edges.
// Percentage is the fraction of the width (0 to 0.5) faded at each
// affected side. The zero value disables damping.
type Damping struct {
	Percentage float64
	Sides      DampingSides
}

func (d Damping) enabled() bool {
	return d.Percentage > 0
}

// Configuration holds the value inputs of a waveform view. It is
// comparable with ==; the view refetches samples when the value
// changes. Styling is configured on the view itself so that
// configuration equality never depends on style state.
type Configuration struct {
	// Scale is the horizontal sample density: how many samples are
	// requested per viewport column. Must be positive.
	Scale float64

	// Damping fades the waveform near its edges.
	Damping Damping

	// VerticalScale caps bar height as a fraction of the viewport
	// height, in (0, 1].
	VerticalScale float64
}

// DefaultConfiguration returns the configuration used when none is
// provided: two samples per column, no damping, bars capped at 95% of
// the viewport height.
func DefaultConfiguration() Configuration {
	return Configuration{
		Scale:         2,
		VerticalScale: 0.95,
	}
}

// WithDefaults replaces out-of-range fields with their defaults, so a
// partially filled Configuration is always usable.
func (c Configuration) WithDefaults() Configuration {
	def := DefaultConfiguration()

	if c.Scale <= 0 {
		c.Scale = def.Scale
	}

	if c.VerticalScale <= 0 || c.VerticalScale > 1 {
		c.VerticalScale = def.VerticalScale
	}

	if c.Damping.Percentage < 0 {
		c.Damping.Percentage = 0
	}

	if c.Damping.Percentage > 0.5 {
		c.Damping.Percentage = 0.5
	}

	return c
}

// SampleCount returns the number of samples a viewport width requires
// at a given horizontal density: floor(width * scale), never negative.
func SampleCount(width int, scale float64) int {
	n := int(math.Floor(float64(width) * scale))
	if n < 0 {
		return 0
	}

	return n
}
