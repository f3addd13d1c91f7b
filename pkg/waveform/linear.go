package waveform

import "strings"

// Block characters for amplitude rendering (8 levels, bottom to top).
// Index 0 = empty (space), 1-8 = increasing fill levels.
const blockChars = " ▁▂▃▄▅▆▇█"

// LinearShaper renders one vertical bar per column, drawn bottom-up
// with eighth-block characters so bar tips land between rows. It is
// the default strategy.
type LinearShaper struct{}

func (LinearShaper) Name() string { return "linear" }

// Build reduces samples to per-column levels and rasterizes them row
// by row. Returns an empty shape when there are no samples or the
// viewport has no area.
func (LinearShaper) Build(samples []float64, cfg Configuration, width, height int) Shape {
	if width <= 0 || height <= 0 || len(samples) == 0 {
		return emptyShape()
	}

	cols := Columns(samples, cfg, width)
	levels := make([]int, len(cols))

	// Each row holds 8 sub-levels; VerticalScale caps the tallest bar.
	maxLevel := int(float64(height*8) * cfg.VerticalScale)
	for i, amp := range cols {
		levels[i] = Level(amp, maxLevel)
	}

	runes := []rune(blockChars)
	rows := make([]string, height)

	for row := 0; row < height; row++ {
		var sb strings.Builder

		for col := 0; col < width; col++ {
			sb.WriteRune(runes[blockIndexForRow(levels[col], row, height)])
		}

		rows[row] = sb.String()
	}

	return newShape(rows)
}

// blockIndexForRow returns the block character index (0-8) for a
// column level at a row. Row 0 is the top; the bottom row covers
// levels 0..8, the row above it 8..16, and so on.
func blockIndexForRow(level, row, height int) int {
	rowFromBottom := height - 1 - row
	fill := level - rowFromBottom*8

	if fill <= 0 {
		return 0
	}

	if fill >= 8 {
		return 8
	}

	return fill
}
