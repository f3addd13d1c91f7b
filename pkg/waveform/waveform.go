// Package waveform provides a bubbletea component that displays the
// waveform of an audio source. The component owns a small state
// machine: tracked inputs (viewport size, source, configuration) feed
// a debounced, cancellable sample fetch, and fetch results drive what
// renders (placeholder, waveform content, or an error indicator).
// Sample extraction, shape building, and styling are pluggable.
package waveform

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultDebounce is the delay between a size change and the fetch it
// schedules. Size changes arriving within the window collapse into a
// single fetch using the final size.
const DefaultDebounce = 50 * time.Millisecond

// SampleProvider produces normalized amplitude samples for an audio
// source. Samples returns up to count values in [0, 1]; it runs on a
// command goroutine and must honor ctx cancellation.
type SampleProvider interface {
	Samples(ctx context.Context, source string, count int) ([]float64, error)
}

// LoadState is where the view stands in its fetch lifecycle.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RecomputeMsg asks the view to start the fetch a trigger claimed.
// Debounced size changes deliver it through a timer; ticks scheduled
// before a newer trigger carry a stale generation and are ignored.
type RecomputeMsg struct {
	Generation int
}

// SamplesLoadedMsg delivers a completed fetch.
type SamplesLoadedMsg struct {
	Generation int
	Samples    []float64
}

// LoadFailedMsg delivers a failed fetch.
type LoadFailedMsg struct {
	Generation int
	Err        error
}

// Option configures a Model at construction.
type Option func(*Model)

// WithConfiguration sets the initial render configuration.
func WithConfiguration(cfg Configuration) Option {
	return func(m *Model) { m.cfg = cfg }
}

// WithShaper sets the rendering strategy.
func WithShaper(s Shaper) Option {
	return func(m *Model) { m.shaper = s }
}

// WithStyler sets the shape styler.
func WithStyler(s Styler) Option {
	return func(m *Model) { m.styler = s }
}

// WithPlaceholder replaces the default baseline placeholder with a
// centered text line shown while no shape can be built.
func WithPlaceholder(text string) Option {
	return func(m *Model) { m.placeholder = text }
}

// WithDebounce overrides the size-change debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithSize sets the viewport before the first window size message
// arrives, letting Init fetch immediately.
func WithSize(width, height int) Option {
	return func(m *Model) { m.setSize(width, height) }
}

// WithContext sets the base context fetches derive from. Cancelling
// it aborts any in-flight fetch.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.baseCtx = ctx
		}
	}
}

// WithOnLoad registers a callback invoked on every applied fetch
// result: nil on success, the error on failure. It runs on the
// program goroutine, so it may flip external flags without locking.
func WithOnLoad(fn func(error)) Option {
	return func(m *Model) { m.onLoad = fn }
}

// Model is the waveform view. It is a value; Update returns the
// modified copy in the usual bubbletea way. All state mutation
// happens in Update on the program goroutine, while provider calls
// run inside commands and report back as messages.
type Model struct {
	provider SampleProvider
	source   string
	cfg      Configuration
	shaper   Shaper
	styler   Styler

	placeholder string
	debounce    time.Duration
	baseCtx     context.Context
	onLoad      func(error)

	width  int
	height int
	sized  bool

	// generation counts triggering events. Every trigger claims a new
	// generation; timer ticks and fetch results carrying an older one
	// are dropped, so a superseded fetch can never overwrite newer
	// state no matter when it completes.
	generation  int
	inflight    bool
	state       LoadState
	samples     []float64
	err         error
	loadedWidth int

	cancel context.CancelFunc
}

// New creates a waveform view for the given source. The provider is
// consulted whenever a tracked input changes.
func New(provider SampleProvider, source string, opts ...Option) Model {
	m := Model{
		provider: provider,
		source:   source,
		cfg:      DefaultConfiguration(),
		shaper:   LinearShaper{},
		styler:   NewDefaultStyler(),
		debounce: DefaultDebounce,
		baseCtx:  context.Background(),
		state:    StateIdle,
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.cfg = m.cfg.WithDefaults()

	return m
}

// Init requests the first fetch, but only when the viewport is known
// and nothing is loaded yet. A re-initialized view that kept its
// samples issues no fetch.
func (m Model) Init() tea.Cmd {
	if len(m.samples) > 0 || !m.sized {
		return nil
	}

	gen := m.generation

	return func() tea.Msg {
		return RecomputeMsg{Generation: gen}
	}
}

// Update advances the state machine.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.Resize(msg.Width, msg.Height)

	case RecomputeMsg:
		if msg.Generation != m.generation {
			return m, nil
		}

		return m.fetch()

	case SamplesLoadedMsg:
		if msg.Generation != m.generation || !m.inflight {
			return m, nil
		}

		m.finishFetch()
		m.samples = msg.Samples
		m.state = StateLoaded
		m.err = nil
		m.loadedWidth = m.width
		m.notify(nil)

		return m, nil

	case LoadFailedMsg:
		if msg.Generation != m.generation || !m.inflight {
			return m, nil
		}

		// A superseded fetch cancelled mid-flight is not a failure.
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}

		m.finishFetch()
		m.state = StateFailed
		m.err = msg.Err
		// Stale samples are kept; the error view wins while rendering.
		m.notify(msg.Err)

		return m, nil
	}

	return m, nil
}

// Resize records a new viewport. The first size with nothing loaded
// fetches immediately; later size changes are debounced.
func (m Model) Resize(width, height int) (Model, tea.Cmd) {
	if width < 0 {
		width = 0
	}

	if height < 0 {
		height = 0
	}

	if m.sized && width == m.width && height == m.height {
		return m, nil
	}

	first := !m.sized
	m.setSize(width, height)

	if first {
		if len(m.samples) > 0 {
			return m, nil
		}

		return m.trigger()
	}

	return m.triggerDebounced()
}

// SetSource switches the audio source. Identical sources are a no-op,
// any other change refetches immediately.
func (m Model) SetSource(source string) (Model, tea.Cmd) {
	if source == m.source {
		return m, nil
	}

	m.source = source

	return m.trigger()
}

// SetConfiguration replaces the render configuration, refetching
// immediately when the value actually changed.
func (m Model) SetConfiguration(cfg Configuration) (Model, tea.Cmd) {
	cfg = cfg.WithDefaults()
	if cfg == m.cfg {
		return m, nil
	}

	m.cfg = cfg

	return m.trigger()
}

// SetShaper swaps the rendering strategy. Shapes are rebuilt on every
// render, so no refetch is needed.
func (m Model) SetShaper(s Shaper) Model {
	if s != nil {
		m.shaper = s
	}

	return m
}

// SetStyler swaps the styler.
func (m Model) SetStyler(s Styler) Model {
	if s != nil {
		m.styler = s
	}

	return m
}

// Reload forces a fresh fetch for the current inputs.
func (m Model) Reload() (Model, tea.Cmd) {
	return m.trigger()
}

// Close aborts any in-flight fetch. Call it when the view leaves the
// tree for good.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.inflight = false
}

// View renders by precedence: error indicator over content, and
// placeholder whenever the shaper reports an empty shape. While a
// refetch is in flight the previous content keeps showing.
func (m Model) View() string {
	if m.state == StateFailed {
		return m.errorView()
	}

	shape := m.shaper.Build(m.samples, m.cfg, m.width, m.height)
	if shape.IsEmpty() {
		return m.placeholderView()
	}

	return m.styler.Style(shape, m.cfg)
}

// Samples returns the currently displayed sample set.
func (m Model) Samples() []float64 { return m.samples }

// State returns the current load state.
func (m Model) State() LoadState { return m.state }

// Failed reports whether the last applied fetch failed.
func (m Model) Failed() bool { return m.state == StateFailed }

// Err returns the last applied fetch error, nil after a success.
func (m Model) Err() error { return m.err }

// Generation returns the current trigger generation.
func (m Model) Generation() int { return m.generation }

// SourcePath returns the audio source reference.
func (m Model) SourcePath() string { return m.source }

// Configuration returns the active render configuration.
func (m Model) Configuration() Configuration { return m.cfg }

// Width returns the viewport width in cells.
func (m Model) Width() int { return m.width }

// Height returns the viewport height in cells.
func (m Model) Height() int { return m.height }

// LoadedWidth returns the viewport width the displayed samples were
// fetched for, 0 before the first success.
func (m Model) LoadedWidth() int { return m.loadedWidth }

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.sized = true
}

// trigger claims a new generation and fetches immediately.
func (m Model) trigger() (Model, tea.Cmd) {
	m.generation++

	return m.fetch()
}

// triggerDebounced claims a new generation and schedules the fetch
// after the debounce delay. Claiming the generation first is what
// cancels any previously scheduled recompute: the older tick still
// fires, but arrives stale.
func (m Model) triggerDebounced() (Model, tea.Cmd) {
	m.generation++
	gen := m.generation

	return m, tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return RecomputeMsg{Generation: gen}
	})
}

// fetch cancels the previous in-flight request and starts one for the
// current inputs under the already claimed generation.
func (m Model) fetch() (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	m.cancel = cancel
	m.inflight = true
	m.state = StateLoading

	provider := m.provider
	source := m.source
	count := SampleCount(m.width, m.cfg.Scale)
	gen := m.generation

	return m, func() tea.Msg {
		samples, err := provider.Samples(ctx, source, count)
		if err != nil {
			return LoadFailedMsg{Generation: gen, Err: err}
		}

		return SamplesLoadedMsg{Generation: gen, Samples: samples}
	}
}

// finishFetch releases the completed request's context.
func (m *Model) finishFetch() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.inflight = false
}

func (m Model) notify(err error) {
	if m.onLoad != nil {
		m.onLoad(err)
	}
}

func (m Model) errorView() string {
	const indicator = "⚠ waveform unavailable"

	if m.width > 0 {
		return errStyle.Width(m.width).Align(lipgloss.Center).Render(indicator)
	}

	return errStyle.Render(indicator)
}

func (m Model) placeholderView() string {
	if m.placeholder != "" {
		if m.width > 0 {
			return mutedStyle.Width(m.width).Align(lipgloss.Center).Render(m.placeholder)
		}

		return mutedStyle.Render(m.placeholder)
	}

	return renderBaseline(m.width, m.height)
}
