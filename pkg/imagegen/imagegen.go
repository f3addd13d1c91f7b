// Package imagegen renders waveform columns into PNG images. It folds
// samples through the same bucketing and damping as the terminal
// shapers, so exported images agree with what the viewer shows.
package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/theleftbit/waveview/pkg/waveform"
)

// Options controls the rendered image. Zero-value fields fall back to
// DefaultOptions.
type Options struct {
	Width  int
	Height int

	// BarWidth and BarGap are in pixels. CenterGap is the vertical
	// distance between the upward and downward halves of each bar.
	BarWidth  int
	BarGap    int
	CenterGap int

	Background color.RGBA
	Bar        color.RGBA
	Text       color.RGBA

	// Title is drawn along the top edge when non-empty. Face is the
	// font used for it; when nil a built-in bitmap face is used.
	Title string
	Face  font.Face
}

// DefaultOptions returns the options used when a field is left at its
// zero value.
func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     400,
		BarWidth:   6,
		BarGap:     3,
		CenterGap:  2,
		Background: color.RGBA{R: 0x12, G: 0x12, B: 0x18, A: 0xFF},
		Bar:        color.RGBA{R: 0x5F, G: 0x5F, B: 0xFF, A: 0xFF},
		Text:       color.RGBA{R: 0xDC, G: 0xDC, B: 0xE1, A: 0xFF},
	}
}

const edgeMargin = 16

func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.Width <= 0 {
		o.Width = def.Width
	}

	if o.Height <= 0 {
		o.Height = def.Height
	}

	if o.BarWidth <= 0 {
		o.BarWidth = def.BarWidth
	}

	if o.BarGap <= 0 {
		o.BarGap = def.BarGap
	}

	if o.CenterGap <= 0 {
		o.CenterGap = def.CenterGap
	}

	if o.Background.A == 0 {
		o.Background = def.Background
	}

	if o.Bar.A == 0 {
		o.Bar = def.Bar
	}

	if o.Text.A == 0 {
		o.Text = def.Text
	}

	return o
}

// LoadFace loads a TrueType font for Options.Face.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Render draws samples as vertically mirrored bars around the image
// center line.
func Render(samples []float64, cfg waveform.Configuration, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	cfg = cfg.WithDefaults()

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fill(img, opts.Background)

	step := opts.BarWidth + opts.BarGap
	numBars := (opts.Width - 2*edgeMargin + opts.BarGap) / step
	if numBars < 1 {
		numBars = 1
	}

	totalWidth := numBars*opts.BarWidth + (numBars-1)*opts.BarGap
	startX := (opts.Width - totalWidth) / 2
	if startX < 0 {
		startX = 0
	}

	centerY := opts.Height / 2
	maxBarHeight := centerY - opts.CenterGap/2 - edgeMargin/2
	if maxBarHeight < 1 {
		maxBarHeight = 1
	}

	drawCenterLine(img, opts, startX, totalWidth, centerY)

	cols := waveform.Columns(samples, cfg, numBars)

	// Alpha fades from full at the center line to half at the tip,
	// matching the perceptual emphasis of the terminal shapers.
	alphaTable := make([]float64, maxBarHeight)
	for i := range alphaTable {
		alphaTable[i] = 1.0 - float64(i)/float64(maxBarHeight)*0.5
	}

	pattern := make([]byte, opts.BarWidth*4)

	for i, col := range cols {
		barHeight := waveform.Level(col, int(float64(maxBarHeight)*cfg.VerticalScale))
		if barHeight <= 0 {
			continue
		}

		x := startX + i*step
		if x+opts.BarWidth > opts.Width {
			continue
		}

		yEnd := centerY - opts.CenterGap/2
		yStart := yEnd - barHeight

		drawBar(img, opts, alphaTable, pattern, x, yStart, yEnd, barHeight)
		mirrorBar(img, opts, x, yStart, yEnd, centerY)
	}

	if opts.Title != "" {
		drawTitle(img, opts)
	}

	return img
}

// WritePNG encodes img to path.
func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()

		return fmt.Errorf("encoding PNG: %w", err)
	}

	return f.Close()
}

func fill(img *image.RGBA, c color.RGBA) {
	pattern := []byte{c.R, c.G, c.B, c.A}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], pattern)
	}
}

// drawCenterLine draws a one pixel baseline across the bar span so
// silence still reads as a waveform.
func drawCenterLine(img *image.RGBA, opts Options, startX, totalWidth, centerY int) {
	faint := scaleColor(opts.Bar, 0.35)

	for x := startX; x < startX+totalWidth && x < opts.Width; x++ {
		img.SetRGBA(x, centerY, faint)
	}
}

// drawBar renders the upward half of one bar, one scanline at a time.
func drawBar(img *image.RGBA, opts Options, alphaTable []float64, pattern []byte, x, yStart, yEnd, barHeight int) {
	for y := yStart; y < yEnd; y++ {
		if y < 0 {
			continue
		}

		distance := (yEnd - 1 - y) * len(alphaTable) / barHeight
		if distance >= len(alphaTable) {
			distance = len(alphaTable) - 1
		}

		c := scaleColor(opts.Bar, alphaTable[distance])
		for px := 0; px < opts.BarWidth; px++ {
			offset := px * 4
			pattern[offset] = c.R
			pattern[offset+1] = c.G
			pattern[offset+2] = c.B
			pattern[offset+3] = 0xFF
		}

		offset := y*img.Stride + x*4
		copy(img.Pix[offset:offset+opts.BarWidth*4], pattern)
	}
}

// mirrorBar copies the upward half scanline by scanline in reverse
// order, preserving the fade gradient below the center line.
func mirrorBar(img *image.RGBA, opts Options, x, yStart, yEnd, centerY int) {
	downStart := centerY + opts.CenterGap/2 + 1

	for i := 0; i < yEnd-yStart; i++ {
		srcY := yEnd - 1 - i
		dstY := downStart + i

		if srcY < 0 || dstY >= opts.Height {
			continue
		}

		srcOffset := srcY*img.Stride + x*4
		dstOffset := dstY*img.Stride + x*4
		copy(img.Pix[dstOffset:dstOffset+opts.BarWidth*4], img.Pix[srcOffset:srcOffset+opts.BarWidth*4])
	}
}

func drawTitle(img *image.RGBA, opts Options) {
	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(opts.Text),
		Face: face,
	}

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()

	d.Dot = freetype.Pt(edgeMargin, edgeMargin/2+ascent)
	d.DrawString(opts.Title)
}

func scaleColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}
