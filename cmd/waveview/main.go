package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/malgo"

	"github.com/theleftbit/waveview/internal/capture"
	"github.com/theleftbit/waveview/internal/config"
	"github.com/theleftbit/waveview/internal/logger"
	"github.com/theleftbit/waveview/internal/server"
	"github.com/theleftbit/waveview/internal/tui"
	"github.com/theleftbit/waveview/pkg/analyzer"
	"github.com/theleftbit/waveview/pkg/channels"
	"github.com/theleftbit/waveview/pkg/imagegen"
	"github.com/theleftbit/waveview/pkg/uictl"
	"github.com/theleftbit/waveview/pkg/waveform"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// CLI defines the waveview command structure.
type CLI struct {
	// Default view command (runs when no subcommand given)
	View ViewCmd `cmd:"" default:"withargs" help:"Display audio file waveforms in the terminal"`

	// Subcommands
	Live    LiveCmd    `cmd:"" help:"Monitor the microphone live, optionally recording it"`
	Render  RenderCmd  `cmd:"" help:"Render a waveform to a PNG image"`
	Serve   ServeCmd   `cmd:"" help:"Run the waveform HTTP API"`
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Formats FormatsCmd `cmd:"" help:"List supported audio file formats"`

	LogLevel string           `flag:"" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	Version  kong.VersionFlag `flag:"" help:"Print version and exit"`
}

// ViewCmd is the default command that displays waveforms for audio
// files.
type ViewCmd struct {
	Files    []string      `arg:"" help:"Audio files to display"`
	Style    string        `flag:"" default:"linear" enum:"linear,braille,circular" help:"Waveform style"`
	Scale    float64       `flag:"" default:"2" help:"Samples requested per terminal column"`
	RMS      bool          `flag:"" help:"Bucket by RMS amplitude instead of peak"`
	Damping  float64       `flag:"" default:"0" help:"Edge fade fraction (0 to 0.5)"`
	Debounce time.Duration `flag:"" default:"50ms" help:"Delay before a resize triggers reanalysis"`
}

// Run executes the view command.
func (c *ViewCmd) Run() error {
	provider := analyzer.New()
	if c.RMS {
		provider.Stat = analyzer.StatRMS
	}

	viewer := tui.NewViewer(provider, c.Files, tui.ViewerConfig{
		Configuration: viewConfiguration(c.Scale, c.Damping),
		Shaper:        c.Style,
		Debounce:      c.Debounce,
	})

	p := tea.NewProgram(viewer)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	return nil
}

// LiveCmd monitors the capture device, optionally recording the
// stream to disk.
type LiveCmd struct {
	Device     string `flag:"" optional:"" help:"Capture device name substring (default: system default)"`
	Record     string `flag:"" optional:"" help:"Record to this file (.wav or .mp3)"`
	MaxBytes   int64  `flag:"" default:"268435456" help:"Recording budget shown in the monitor (256MB, 0 = unlimited)"`
	SampleRate int    `flag:"" default:"16000" help:"Capture sample rate in Hz"`
	Channels   int    `flag:"" default:"1" help:"Capture channel count"`
}

// Run executes the live command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *LiveCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := sync.WaitGroup{}

	conf := capture.DefaultDeviceConfig()
	conf.SampleRate = c.SampleRate
	conf.Channels = c.Channels

	if c.Device != "" {
		id, err := findDevice(ctx, c.Device)
		if err != nil {
			return err
		}

		conf.DeviceID = id
	}

	dataC := make(chan []byte, 64)

	dev := capture.NewDevice(conf)
	if err := dev.CaptureInto(ctx, dataC); err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	// always dealloc when we're done
	defer func() {
		dev.Dealloc(ctx)
		slog.Debug("Audio device deallocated")
	}()

	// One capture stream fans out to the live meter and, when
	// recording, to a recorder. The broadcaster outlives ctx so that
	// closing dataC ends the bridge goroutine first and the drain
	// finishes before subscriber channels close.
	bcCtx, stopBroadcast := context.WithCancel(context.Background())
	defer stopBroadcast()

	bc := channels.NewBroadcaster[[]byte]()

	ringC := make(chan []byte, 64)
	if err := bc.Subscribe(ringC); err != nil {
		return fmt.Errorf("failed to subscribe live meter: %w", err)
	}

	var recorder capture.Recorder

	if c.Record != "" {
		recC := make(chan []byte, 64)
		if err := bc.SubscribeWithTimeout(recC, time.Second); err != nil {
			return fmt.Errorf("failed to subscribe recorder: %w", err)
		}

		rec, err := capture.NewRecorder(capture.RecorderConfig{
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
			Path:       c.Record,
		}, recC)
		if err != nil {
			return fmt.Errorf("failed to create recorder: %w", err)
		}

		recorder = rec
	}

	input, err := bc.Run(bcCtx)
	if err != nil {
		return fmt.Errorf("failed to start broadcaster: %w", err)
	}

	wg.Go(func() {
		for pkt := range dataC {
			input <- pkt
		}

		stopBroadcast()
		bc.Wait()
	})

	ring := capture.NewSampleRing(capture.DefaultRingCapacity)

	wg.Go(func() {
		for pkt := range ringC {
			ring.WriteBytes(pkt)
		}
	})

	// Recorder goroutine (waits for channel close, file finalization)
	if recorder != nil {
		wg.Go(func() {
			if err := recorder.Start(ctx); err != nil {
				slog.Error("Audio recorder error", "error", err)

				return
			}

			if err := recorder.Wait(); err != nil {
				slog.Error("Audio recorder error", "error", err)
			}
		})
	}

	if err := dev.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	ctrls := makeRecordingControls(ctx, dev, recorder, dataC, ring, c.MaxBytes)

	p := tea.NewProgram(tui.NewMonitor(ctrls, c.Record))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	wg.Wait()

	if recorder != nil {
		fmt.Printf("\nrecorded %s (%d bytes)\n", recorder.Path(), recorder.BytesWritten())
	}

	return nil
}

// RenderCmd renders a waveform to a PNG image, or prints it once to
// the terminal with --out -.
type RenderCmd struct {
	File    string  `arg:"" help:"Audio file to render"`
	Out     string  `flag:"" default:"waveform.png" help:"Output PNG path, or - for a one-shot terminal print"`
	Width   int     `flag:"" default:"0" help:"Output width (pixels, or columns for -); 0 picks a default"`
	Height  int     `flag:"" default:"0" help:"Output height (pixels, or rows for -); 0 picks a default"`
	Style   string  `flag:"" default:"linear" enum:"linear,braille,circular" help:"Waveform style for terminal output"`
	Scale   float64 `flag:"" default:"2" help:"Samples requested per column"`
	RMS     bool    `flag:"" help:"Bucket by RMS amplitude instead of peak"`
	Damping float64 `flag:"" default:"0" help:"Edge fade fraction (0 to 0.5)"`
	Font    string  `flag:"" optional:"" help:"TTF font file for the title"`
	Title   string  `flag:"" optional:"" help:"Title drawn on the image"`
}

const titleFontSize = 24

// Run executes the render command.
func (c *RenderCmd) Run() error {
	provider := analyzer.New()
	if c.RMS {
		provider.Stat = analyzer.StatRMS
	}

	cfg := viewConfiguration(c.Scale, c.Damping)

	if c.Out == "-" {
		return c.printTerminal(provider, cfg)
	}

	opts := imagegen.Options{
		Width:  c.Width,
		Height: c.Height,
		Title:  c.Title,
	}

	if c.Font != "" {
		face, err := imagegen.LoadFace(c.Font, titleFontSize)
		if err != nil {
			return err
		}

		opts.Face = face
	}

	width := c.Width
	if width <= 0 {
		width = imagegen.DefaultOptions().Width
	}

	samples, err := provider.Samples(context.Background(), c.File, waveform.SampleCount(width, cfg.Scale))
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", c.File, err)
	}

	if err := imagegen.WritePNG(imagegen.Render(samples, cfg, opts), c.Out); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", c.Out)

	return nil
}

// printTerminal renders the waveform once to stdout instead of a file.
func (c *RenderCmd) printTerminal(provider *analyzer.Analyzer, cfg waveform.Configuration) error {
	shaper, err := waveform.ShaperByName(c.Style)
	if err != nil {
		return err
	}

	width := c.Width
	if width <= 0 {
		width = 80
	}

	height := c.Height
	if height <= 0 {
		height = 12
	}

	samples, err := provider.Samples(context.Background(), c.File, waveform.SampleCount(width, cfg.Scale))
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", c.File, err)
	}

	shape := shaper.Build(samples, cfg, width, height)
	if shape.IsEmpty() {
		return fmt.Errorf("nothing to draw for %s", c.File)
	}

	fmt.Println(waveform.NewDefaultStyler().Style(shape, cfg))

	return nil
}

// ServeCmd runs the waveform HTTP API.
type ServeCmd struct {
	Port     string `flag:"" optional:"" help:"Port to listen on (overrides WAVEVIEW_PORT)"`
	MediaDir string `flag:"" optional:"" help:"Media directory (overrides WAVEVIEW_MEDIA_DIR)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.Port != "" {
		cfg.Port = c.Port
	}

	if c.MediaDir != "" {
		cfg.MediaDir = c.MediaDir
	}

	srvLogger := logger.Setup(cfg)

	srvLogger.Info("Starting waveview server",
		"env", cfg.Env,
		"port", cfg.Port,
		"media_dir", cfg.MediaDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, srvLogger).Run(ctx)
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	devices, err := capture.Enumerate(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// FormatsCmd lists the audio file formats the analyzer decodes.
type FormatsCmd struct{}

// Run executes the formats command.
//
//nolint:unparam // error return required by Kong interface
func (c *FormatsCmd) Run() error {
	fmt.Println(strings.Join(analyzer.Formats(), " "))

	return nil
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli, kong.Vars{"version": version})

	// Text logs go to stderr so they never interleave with TUI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cli.LogLevel),
	})
	slog.SetDefault(slog.New(handler))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// viewConfiguration builds the render configuration the view and
// render commands share.
func viewConfiguration(scale, damping float64) waveform.Configuration {
	cfg := waveform.DefaultConfiguration()
	cfg.Scale = scale

	if damping > 0 {
		cfg.Damping = waveform.Damping{Percentage: damping, Sides: waveform.DampBoth}
	}

	return cfg
}

// findDevice resolves a device name substring to a capture device ID.
func findDevice(ctx context.Context, name string) (*malgo.DeviceID, error) {
	devices, err := capture.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	needle := strings.ToLower(name)

	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), needle) {
			return &devices[i].ID, nil
		}
	}

	return nil, fmt.Errorf("no capture device matching %q", name)
}

func makeRecordingControls(
	ctx context.Context,
	dev capture.Device,
	recorder capture.Recorder,
	dataC chan []byte,
	ring *capture.SampleRing,
	maxBytes int64,
) tui.RecordingControls {
	var fileSize uictl.CappedDial[int64]
	if recorder != nil {
		fileSize = recorderDial{
			recorder: recorder,
			maxBytes: maxBytes,
		}
	}

	return tui.RecordingControls{
		StartStop: captureDevKnob{
			ctx: ctx,
			dev: dev,
		},
		FileSize:     fileSize,
		SampleLevels: ring,
		Finish: func() {
			if err := dev.Stop(ctx); err != nil {
				slog.Error("Failed to stop audio device", "error", err)
			}
			close(dataC)
		},
	}
}

type captureDevKnob struct {
	ctx context.Context
	dev capture.Device
}

func (cdk captureDevKnob) Read() bool {
	return cdk.dev.IsStarted()
}

func (cdk captureDevKnob) On() {
	err := cdk.dev.Start(cdk.ctx)
	if err != nil {
		slog.Error("captureDevKnob On error", "error", err)
	}
}

func (cdk captureDevKnob) Off() {
	err := cdk.dev.Stop(cdk.ctx)
	if err != nil {
		slog.Error("captureDevKnob Off error", "error", err)
	}
}

func (cdk captureDevKnob) Toggle() {
	err := cdk.dev.Toggle(cdk.ctx)
	if err != nil {
		slog.Error("captureDevKnob Toggle error", "error", err)
	}
}

// recorderDial implements uictl.CappedDial[int64] over the recorder's
// write counter.
type recorderDial struct {
	recorder capture.Recorder
	maxBytes int64
}

func (rd recorderDial) Read() int64 {
	return rd.recorder.BytesWritten()
}

func (rd recorderDial) Cap() (int64, int64) {
	return rd.Read(), rd.maxBytes
}
