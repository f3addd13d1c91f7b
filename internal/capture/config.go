package capture

import (
	"errors"

	"github.com/gen2brain/malgo"
)

const (
	// DefaultSampleRate keeps live rendering and recordings light;
	// waveform display needs no more.
	DefaultSampleRate = 16000

	// DefaultChannels is mono.
	DefaultChannels = 1

	// DefaultRingCapacity is the number of samples the live meter keeps,
	// about a quarter second at the default rate.
	DefaultRingCapacity = 4096
)

// DeviceConfig describes the capture stream requested from the OS.
type DeviceConfig struct {
	Format     malgo.FormatType
	Channels   int
	SampleRate int

	// DeviceID selects a specific capture device as enumerated by
	// Enumerate. Nil uses the system default.
	DeviceID *malgo.DeviceID
}

// DefaultDeviceConfig returns the S16LE mono config the rest of the
// pipeline assumes.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:     malgo.FormatS16,
		Channels:   DefaultChannels,
		SampleRate: DefaultSampleRate,
	}
}

// Validate rejects configs the recorders cannot consume.
func (c DeviceConfig) Validate() error {
	if c.Format != malgo.FormatS16 {
		return errors.New("only S16 capture format is supported")
	}

	if c.Channels <= 0 {
		return errors.New("channels must be positive")
	}

	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	return nil
}
