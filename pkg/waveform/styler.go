package waveform

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styler turns a built Shape into styled terminal output.
type Styler interface {
	Style(shape Shape, cfg Configuration) string
}

// Default placeholder/error styling, shared by every view instance
// that does not bring its own.
var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DefaultStyler colors every shape row with a single style.
type DefaultStyler struct {
	Wave lipgloss.Style
}

// NewDefaultStyler returns the styler used when none is configured.
func NewDefaultStyler() DefaultStyler {
	return DefaultStyler{
		Wave: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}
}

func (s DefaultStyler) Style(shape Shape, _ Configuration) string {
	rows := shape.Rows()
	out := make([]string, len(rows))

	for i, row := range rows {
		out[i] = s.Wave.Render(row)
	}

	return strings.Join(out, "\n")
}

// renderBaseline draws the default placeholder: a muted baseline along
// the bottom row with empty rows above it.
func renderBaseline(width, height int) string {
	if width < 1 {
		width = 1
	}

	if height < 1 {
		height = 1
	}

	rows := make([]string, height)

	for row := range rows {
		ch := " "
		if row == height-1 {
			ch = "▁"
		}

		rows[row] = mutedStyle.Render(strings.Repeat(ch, width))
	}

	return strings.Join(rows, "\n")
}
