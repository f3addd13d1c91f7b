package waveform

import "strings"

// brailleBits maps a (sub-row, sub-column) within a braille cell to
// its dot bit. A cell is 2 dots wide and 4 dots tall, base U+2800.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// BrailleShaper renders a vertically centered waveform at double
// horizontal and quadruple vertical resolution using braille dots.
type BrailleShaper struct{}

func (BrailleShaper) Name() string { return "braille" }

func (BrailleShaper) Build(samples []float64, cfg Configuration, width, height int) Shape {
	if width <= 0 || height <= 0 || len(samples) == 0 {
		return emptyShape()
	}

	xRes := width * 2
	yRes := height * 4
	cols := Columns(samples, cfg, xRes)

	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = make([]rune, width)
		for x := range cells[y] {
			cells[y][x] = 0x2800
		}
	}

	center := yRes / 2
	maxHalf := float64(center) * cfg.VerticalScale

	for x, amp := range cols {
		half := Level(amp, int(maxHalf))

		// Always light the center dot so the baseline reads as a line.
		for y := center - half; y <= center+half; y++ {
			if y < 0 || y >= yRes {
				continue
			}

			cells[y/4][x/2] |= brailleBits[y%4][x%2]
		}
	}

	rows := make([]string, height)

	for y := range cells {
		var sb strings.Builder

		for _, r := range cells[y] {
			sb.WriteRune(r)
		}

		rows[y] = sb.String()
	}

	return newShape(rows)
}
