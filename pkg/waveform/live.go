package waveform

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/theleftbit/waveview/pkg/uictl"
)

// Live view refresh rate. 50ms ticks keep the meter fluid without
// hammering the renderer.
const (
	liveInterval = 50 * time.Millisecond
	liveFPS      = 20
)

// TickMsg triggers a live waveform refresh.
type TickMsg struct{}

// LiveModel renders a continuously updating waveform from a level
// source, typically a capture ring buffer. Each column's height is
// smoothed with a spring so the display settles instead of jittering.
// It shares the shaper/styler pipeline with the file-backed view.
type LiveModel struct {
	levels uictl.Levels[int16]
	cfg    Configuration
	shaper Shaper
	styler Styler

	width  int
	height int

	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

// NewLive creates a live waveform view reading from levels, rendered
// at the given size.
func NewLive(levels uictl.Levels[int16], width, height int) LiveModel {
	m := LiveModel{
		levels: levels,
		cfg:    DefaultConfiguration(),
		shaper: LinearShaper{},
		styler: NewDefaultStyler(),
		spring: harmonica.NewSpring(harmonica.FPS(liveFPS), 12.0, 0.7),
	}
	m.Resize(width, height)

	return m
}

// Init starts the refresh ticker.
func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

// Update advances the column springs toward the latest capture levels
// on every tick.
func (m LiveModel) Update(msg tea.Msg) (LiveModel, tea.Cmd) {
	if _, ok := msg.(TickMsg); !ok {
		return m, nil
	}

	targets := m.targets()
	for i := range m.pos {
		m.pos[i], m.vel[i] = m.spring.Update(m.pos[i], m.vel[i], targets[i])
	}

	return m, m.tick()
}

// View renders the smoothed columns through the shaper pipeline.
func (m LiveModel) View() string {
	if m.levels == nil {
		return renderBaseline(m.width, m.height)
	}

	shape := m.shaper.Build(m.pos, m.cfg, m.width, m.height)
	if shape.IsEmpty() {
		return renderBaseline(m.width, m.height)
	}

	return m.styler.Style(shape, m.cfg)
}

// Resize adjusts the viewport and resets the spring state.
func (m *LiveModel) Resize(width, height int) {
	if width < 1 {
		width = 1
	}

	if height < 1 {
		height = 1
	}

	m.width = width
	m.height = height
	m.pos = make([]float64, width)
	m.vel = make([]float64, width)
}

// SetShaper swaps the rendering strategy.
func (m *LiveModel) SetShaper(s Shaper) {
	if s != nil {
		m.shaper = s
	}
}

// SetStyler swaps the styler.
func (m *LiveModel) SetStyler(s Styler) {
	if s != nil {
		m.styler = s
	}
}

// targets reduces the current capture window to one normalized
// amplitude per column. Returns zeros when no source is attached.
func (m LiveModel) targets() []float64 {
	if m.levels == nil {
		return make([]float64, m.width)
	}

	samples := m.levels.Read()
	if len(samples) == 0 {
		return make([]float64, m.width)
	}

	cols := Columns(normalizeInt16(samples), m.cfg, m.width)
	if len(cols) < m.width {
		cols = append(cols, make([]float64, m.width-len(cols))...)
	}

	return cols
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(liveInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// normalizeInt16 converts raw PCM to amplitudes in [0, 1].
func normalizeInt16(samples []int16) []float64 {
	out := make([]float64, len(samples))

	for i, s := range samples {
		// -32768 has no positive counterpart.
		if s == -32768 {
			out[i] = 1
			continue
		}

		if s < 0 {
			s = -s
		}

		out[i] = float64(s) / 32767.0
	}

	return out
}
