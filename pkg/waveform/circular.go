package waveform

import "math"

// CircularShaper plots samples around a circle, one spoke per angle,
// spoke length scaled by amplitude. The horizontal and vertical radii
// derive from the viewport independently, which corrects for terminal
// cells being taller than wide.
type CircularShaper struct{}

func (CircularShaper) Name() string { return "circular" }

// innerRadius is the fraction of the radius where spokes start, so
// silent audio still shows a ring.
const innerRadius = 0.2

func (CircularShaper) Build(samples []float64, cfg Configuration, width, height int) Shape {
	if width <= 0 || height <= 0 || len(samples) == 0 {
		return emptyShape()
	}

	angles := width
	if angles > 360 {
		angles = 360
	}

	cols := Columns(samples, cfg, angles)

	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	cx := float64(width-1) / 2
	cy := float64(height-1) / 2
	rx := cx * cfg.VerticalScale
	ry := cy * cfg.VerticalScale

	for i, amp := range cols {
		theta := 2*math.Pi*float64(i)/float64(len(cols)) - math.Pi/2
		level := math.Sqrt(amp)
		outer := innerRadius + (1-innerRadius)*level

		// Walk the spoke from the inner ring to its tip.
		steps := int(outer * math.Max(rx, ry) * 2)
		if steps < 1 {
			steps = 1
		}

		for s := 0; s <= steps; s++ {
			r := innerRadius + (outer-innerRadius)*float64(s)/float64(steps)
			x := int(math.Round(cx + math.Cos(theta)*rx*r))
			y := int(math.Round(cy + math.Sin(theta)*ry*r))

			if x < 0 || x >= width || y < 0 || y >= height {
				continue
			}

			if s == steps && level > 0 {
				grid[y][x] = '•'
			} else if grid[y][x] == ' ' {
				grid[y][x] = '·'
			}
		}
	}

	rows := make([]string, height)
	for y, line := range grid {
		rows[y] = string(line)
	}

	return newShape(rows)
}
