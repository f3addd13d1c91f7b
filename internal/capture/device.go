// Package capture wraps the OS audio layer: device enumeration, a
// capture stream of raw PCM packets, the ring buffer behind the live
// meter, and recorders that persist the stream to disk.
package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"

	"github.com/theleftbit/waveview/pkg/collections"
)

// DataPacket is one callback's worth of raw S16LE bytes.
type DataPacket = []byte

// Device is an allocated capture device.
type Device interface {
	// Capture allocates the underlying device and returns the channel
	// that receives PCM packets once Start is called.
	Capture(ctx context.Context) (<-chan DataPacket, error)

	// CaptureInto is Capture writing into a caller-owned channel.
	CaptureInto(ctx context.Context, dataC chan DataPacket) error

	// Start begins delivering packets. No-op when already started.
	Start(ctx context.Context) error

	// Stop pauses packet delivery. No-op when the device is gone.
	Stop(ctx context.Context) error

	// Toggle starts or stops depending on the current state.
	Toggle(ctx context.Context) error

	// IsStarted reports whether packets are currently delivered.
	IsStarted() bool

	// Dealloc releases the device and its context.
	Dealloc(ctx context.Context)
}

type device struct {
	conf DeviceConfig

	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
}

// NewDevice returns an unallocated capture device; Capture allocates
// it.
func NewDevice(conf DeviceConfig) Device {
	return &device{conf: conf}
}

func (d *device) Capture(ctx context.Context) (<-chan DataPacket, error) {
	dataC := make(chan DataPacket, 64)
	if err := d.CaptureInto(ctx, dataC); err != nil {
		return nil, err
	}

	return dataC, nil
}

func (d *device) CaptureInto(ctx context.Context, dataC chan DataPacket) error {
	if dataC == nil {
		return fmt.Errorf("data channel is nil")
	}

	if err := d.conf.Validate(); err != nil {
		return fmt.Errorf("invalid device config: %w", err)
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = d.conf.Format
	devCnf.Capture.Channels = uint32(d.conf.Channels)
	devCnf.SampleRate = uint32(d.conf.SampleRate)

	if d.conf.DeviceID != nil {
		devCnf.Capture.DeviceID = d.conf.DeviceID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, framecount uint32) {
			dataC <- samples
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)

		return fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	d.mgCtx = mgCtx
	d.mgDevice = mgDevice

	return nil
}

func (d *device) Start(ctx context.Context) error {
	if d.mgDevice == nil {
		return fmt.Errorf("device not allocated, call Capture first")
	}

	if d.mgDevice.IsStarted() {
		return nil
	}

	if err := d.mgDevice.Start(); err != nil {
		return fmt.Errorf("failed to start malgo device: %w", err)
	}

	return nil
}

func (d *device) Stop(ctx context.Context) error {
	if d.mgDevice == nil {
		return nil
	}

	if err := d.mgDevice.Stop(); err != nil {
		return fmt.Errorf("failed to stop malgo device: %w", err)
	}

	return nil
}

func (d *device) Toggle(ctx context.Context) error {
	if d.mgDevice == nil {
		return fmt.Errorf("device not allocated, call Capture first")
	}

	if d.mgDevice.IsStarted() {
		return d.Stop(ctx)
	}

	return d.Start(ctx)
}

func (d *device) IsStarted() bool {
	if d.mgDevice == nil {
		return false
	}

	return d.mgDevice.IsStarted()
}

func (d *device) Dealloc(ctx context.Context) {
	if d.mgDevice == nil {
		return
	}

	d.mgDevice.Uninit()
	uninitializeContext(d.mgCtx)
	d.mgDevice = nil
	d.mgCtx = nil
}

// Info describes one enumerated capture device.
type Info struct {
	ID          malgo.DeviceID
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// Enumerate lists the capture devices the OS exposes. It needs no
// allocated Device.
func Enumerate(ctx context.Context) ([]Info, error) {
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, infoFromMalgo), nil
}

func infoFromMalgo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}

	return Info{
		ID:          mdi.ID,
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}

	deviceCtx.Free()
}
