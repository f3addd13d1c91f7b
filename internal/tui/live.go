package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theleftbit/waveview/internal/tui/style"
	"github.com/theleftbit/waveview/pkg/uictl"
	"github.com/theleftbit/waveview/pkg/waveform"
)

// liveChromeRows is how many monitor rows the status, progress, and
// help lines occupy around the live waveform.
const (
	liveChromeRows = 6
	minWaveHeight  = 3
)

// RecordingControls provides read/write access to capture hardware.
type RecordingControls struct {
	StartStop    uictl.Knob
	FileSize     uictl.CappedDial[int64]
	SampleLevels uictl.Levels[int16]
	Finish       func()
}

// liveKeyMap defines the key bindings for the live monitor.
type liveKeyMap struct {
	Toggle key.Binding
	Quit   key.Binding
}

func defaultLiveKeyMap() liveKeyMap {
	return liveKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "stop"),
		),
	}
}

// Monitor renders a live waveform from the capture ring buffer, with
// a stopwatch and, when recording to a file, a byte budget bar.
type Monitor struct {
	keys       liveKeyMap
	controls   RecordingControls
	outputPath string

	spinner   spinner.Model
	stopwatch stopwatch.Model
	progress  progress.Model
	wave      waveform.LiveModel

	width  int
	height int
}

// NewMonitor creates a live capture monitor. outputPath is empty when
// monitoring without recording.
func NewMonitor(controls RecordingControls, outputPath string) *Monitor {
	s := spinner.New()
	s.Spinner = spinner.Points

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Monitor{
		keys:       defaultLiveKeyMap(),
		controls:   controls,
		outputPath: outputPath,
		spinner:    s,
		stopwatch:  stopwatch.New(),
		progress:   p,
		wave:       waveform.NewLive(controls.SampleLevels, 80, 8),
	}
}

// Init returns the initial commands, starting the stopwatch when the
// capture device is already running.
func (m *Monitor) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.wave.Init()}

	if m.IsLive() {
		cmds = append(cmds, m.stopwatch.Start())
	}

	return tea.Batch(cmds...)
}

// Update handles messages for the live monitor.
func (m *Monitor) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typedMsg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = typedMsg.Width
		m.height = typedMsg.Height

		height := typedMsg.Height - liveChromeRows
		if height < minWaveHeight {
			height = minWaveHeight
		}

		m.wave.Resize(typedMsg.Width, height)

	case tea.KeyMsg:
		switch {
		case key.Matches(typedMsg, m.keys.Toggle):
			m.controls.StartStop.Toggle()
			if m.IsLive() {
				cmds = append(cmds, m.stopwatch.Start())
			} else {
				cmds = append(cmds, m.stopwatch.Stop())
			}

			return m, tea.Batch(cmds...)

		case key.Matches(typedMsg, m.keys.Quit):
			if m.controls.Finish != nil {
				m.controls.Finish()
			}

			return m, tea.Quit
		}

	case waveform.TickMsg:
		var cmd tea.Cmd
		m.wave, cmd = m.wave.Update(typedMsg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typedMsg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(typedMsg)
		m.progress = progressModel.(progress.Model) //nolint:forcetypeassert // bubbles library contract
		cmds = append(cmds, cmd)
	}

	// Always update stopwatch
	var stopwatchCmd tea.Cmd
	m.stopwatch, stopwatchCmd = m.stopwatch.Update(teaMsg)
	if stopwatchCmd != nil {
		cmds = append(cmds, stopwatchCmd)
	}

	return m, tea.Batch(cmds...)
}

// IsLive returns whether capture is currently running.
func (m *Monitor) IsLive() bool {
	return m.controls.StartStop.Read()
}

// View renders the live monitor UI.
func (m *Monitor) View() string {
	var sb strings.Builder

	if m.IsLive() {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(style.Title.Render(m.label()))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(m.stopwatch.View()))
	} else {
		sb.WriteString(style.Warning.Render("Paused"))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(m.stopwatch.View()))
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.wave.View())
	sb.WriteString("\n\n")

	if m.controls.FileSize != nil {
		current, maxValue := m.controls.FileSize.Cap()

		percent := float64(0)
		if maxValue > 0 {
			percent = float64(current) / float64(maxValue)
		}

		sb.WriteString(m.progress.ViewAs(percent))
		sb.WriteString("\n")
		sb.WriteString(style.Subtitle.Render(formatBytes(current, maxValue)))
		sb.WriteString("  ")
		sb.WriteString(style.Label.Render("File: "))
		sb.WriteString(style.Muted.Render(m.outputPath))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(m.keys.Toggle, " "))
	sb.WriteString(renderKeyHelp(m.keys.Quit))

	return sb.String()
}

func (m *Monitor) label() string {
	if m.outputPath != "" {
		return "Recording"
	}

	return "Live"
}
