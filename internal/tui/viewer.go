// Package tui implements the terminal application: a viewer paging
// through audio files and a live capture monitor.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theleftbit/waveview/internal/tui/style"
	"github.com/theleftbit/waveview/pkg/waveform"
)

// chromeRows is how many viewer rows the header, status, and help
// lines occupy around the waveform body.
const (
	chromeRows     = 5
	minTrackHeight = 3

	minScale  = 0.5
	maxScale  = 8
	scaleStep = 0.5
)

// trackMsg routes a waveform command's result back to the track that
// issued it, keeping concurrent fetches for different tracks apart.
type trackMsg struct {
	index int
	msg   tea.Msg
}

func routeTo(index int, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}

	return func() tea.Msg {
		return trackMsg{index: index, msg: cmd()}
	}
}

// viewerKeyMap defines the key bindings for the viewer.
type viewerKeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Shaper    key.Binding
	ScaleUp   key.Binding
	ScaleDown key.Binding
	Damping   key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

func defaultViewerKeyMap() viewerKeyMap {
	return viewerKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "prev"),
		),
		Shaper: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "style"),
		),
		ScaleUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ScaleDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		Damping: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "damping"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ViewerConfig carries the viewer's initial settings from the CLI.
type ViewerConfig struct {
	Configuration waveform.Configuration
	Shaper        string
	Debounce      time.Duration
}

// track is one audio file and its waveform view.
type track struct {
	path string
	view waveform.Model
}

// Viewer pages through one waveform view per audio file.
type Viewer struct {
	keys    viewerKeyMap
	spinner spinner.Model

	tracks []track
	active int

	shapers   []waveform.Shaper
	shaperIdx int

	width  int
	height int
}

// NewViewer creates the viewer over the given audio files. Each file
// gets its own waveform view reading samples from provider.
func NewViewer(provider waveform.SampleProvider, paths []string, cfg ViewerConfig) *Viewer {
	s := spinner.New()
	s.Spinner = spinner.Points

	shapers := waveform.Shapers()

	shaperIdx := 0
	for i, sh := range shapers {
		if sh.Name() == cfg.Shaper {
			shaperIdx = i
		}
	}

	opts := []waveform.Option{
		waveform.WithConfiguration(cfg.Configuration),
		waveform.WithShaper(shapers[shaperIdx]),
	}
	if cfg.Debounce > 0 {
		opts = append(opts, waveform.WithDebounce(cfg.Debounce))
	}

	tracks := make([]track, 0, len(paths))
	for _, path := range paths {
		tracks = append(tracks, track{
			path: path,
			view: waveform.New(provider, path, opts...),
		})
	}

	return &Viewer{
		keys:      defaultViewerKeyMap(),
		spinner:   s,
		tracks:    tracks,
		shapers:   shapers,
		shaperIdx: shaperIdx,
	}
}

// Init returns the initial command.
func (v *Viewer) Init() tea.Cmd {
	if len(v.tracks) == 0 {
		return nil
	}

	return tea.Batch(
		v.spinner.Tick,
		routeTo(v.active, v.tracks[v.active].view.Init()),
	)
}

// Update handles messages for the viewer.
func (v *Viewer) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

		return v, v.resizeActive()

	case trackMsg:
		if msg.index < 0 || msg.index >= len(v.tracks) {
			return v, nil
		}

		view, cmd := v.tracks[msg.index].view.Update(msg.msg)
		v.tracks[msg.index].view = view

		return v, routeTo(msg.index, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)

		return v, cmd

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *Viewer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, v.keys.Quit) {
		for i := range v.tracks {
			v.tracks[i].view.Close()
		}

		return v, tea.Quit
	}

	if len(v.tracks) == 0 {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Next):
		return v, v.selectTrack((v.active + 1) % len(v.tracks))

	case key.Matches(msg, v.keys.Prev):
		return v, v.selectTrack((v.active - 1 + len(v.tracks)) % len(v.tracks))

	case key.Matches(msg, v.keys.Shaper):
		v.shaperIdx = (v.shaperIdx + 1) % len(v.shapers)
		for i := range v.tracks {
			v.tracks[i].view = v.tracks[i].view.SetShaper(v.shapers[v.shaperIdx])
		}

		return v, nil

	case key.Matches(msg, v.keys.ScaleUp):
		return v, v.adjustScale(scaleStep)

	case key.Matches(msg, v.keys.ScaleDown):
		return v, v.adjustScale(-scaleStep)

	case key.Matches(msg, v.keys.Damping):
		return v, v.toggleDamping()

	case key.Matches(msg, v.keys.Reload):
		view, cmd := v.tracks[v.active].view.Reload()
		v.tracks[v.active].view = view

		return v, routeTo(v.active, cmd)
	}

	return v, nil
}

// resizeActive forwards the window size to the active track, leaving
// room for the chrome rows. Inactive tracks are sized when selected.
func (v *Viewer) resizeActive() tea.Cmd {
	if len(v.tracks) == 0 || v.width == 0 {
		return nil
	}

	height := v.height - chromeRows
	if height < minTrackHeight {
		height = minTrackHeight
	}

	view, cmd := v.tracks[v.active].view.Resize(v.width, height)
	v.tracks[v.active].view = view

	return routeTo(v.active, cmd)
}

func (v *Viewer) selectTrack(index int) tea.Cmd {
	if index == v.active {
		return nil
	}

	v.active = index

	return v.resizeActive()
}

func (v *Viewer) adjustScale(delta float64) tea.Cmd {
	cfg := v.tracks[v.active].view.Configuration()

	cfg.Scale = min(max(cfg.Scale+delta, minScale), maxScale)

	view, cmd := v.tracks[v.active].view.SetConfiguration(cfg)
	v.tracks[v.active].view = view

	return routeTo(v.active, cmd)
}

func (v *Viewer) toggleDamping() tea.Cmd {
	cfg := v.tracks[v.active].view.Configuration()

	if cfg.Damping.Percentage > 0 {
		cfg.Damping = waveform.Damping{}
	} else {
		cfg.Damping = waveform.Damping{Percentage: 0.15, Sides: waveform.DampBoth}
	}

	view, cmd := v.tracks[v.active].view.SetConfiguration(cfg)
	v.tracks[v.active].view = view

	return routeTo(v.active, cmd)
}

// View renders the active track with header, status, and help lines.
func (v *Viewer) View() string {
	if len(v.tracks) == 0 {
		return style.Muted.Render("no audio files")
	}

	tr := v.tracks[v.active]

	var sb strings.Builder

	sb.WriteString(style.Title.Render("waveview"))
	sb.WriteString(" ")
	sb.WriteString(style.Muted.Render(filepath.Base(tr.path)))

	if len(v.tracks) > 1 {
		sb.WriteString(style.Subtitle.Render(fmt.Sprintf(" (%d/%d)", v.active+1, len(v.tracks))))
	}

	sb.WriteString("\n\n")
	sb.WriteString(tr.view.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.status(tr))
	sb.WriteString("\n")

	sb.WriteString(renderKeyHelp(v.keys.Next, " "))
	sb.WriteString(renderKeyHelp(v.keys.Shaper, " "))
	sb.WriteString(renderKeyHelp(v.keys.ScaleUp, " "))
	sb.WriteString(renderKeyHelp(v.keys.ScaleDown, " "))
	sb.WriteString(renderKeyHelp(v.keys.Damping, " "))
	sb.WriteString(renderKeyHelp(v.keys.Reload, " "))
	sb.WriteString(renderKeyHelp(v.keys.Quit))

	return sb.String()
}

// status describes the active track's load state on one line.
func (v *Viewer) status(tr track) string {
	switch tr.view.State() {
	case waveform.StateLoading:
		return v.spinner.View() + " " + style.Subtitle.Render("analyzing "+filepath.Base(tr.path))

	case waveform.StateFailed:
		return style.Error.Render("error: " + tr.view.Err().Error())

	case waveform.StateLoaded:
		cfg := tr.view.Configuration()

		line := fmt.Sprintf("%d samples · scale %.1f · %s",
			len(tr.view.Samples()), cfg.Scale, v.shapers[v.shaperIdx].Name())
		if cfg.Damping.Percentage > 0 {
			line += " · damped"
		}

		return style.Subtitle.Render(line)

	default:
		return style.Subtitle.Render("waiting for terminal size")
	}
}
