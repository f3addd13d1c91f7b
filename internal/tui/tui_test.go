package tui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 100 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

// fakeProvider implements waveform.SampleProvider with canned data.
type fakeProvider struct {
	samples []float64
	err     error
	delay   time.Duration
}

func (p *fakeProvider) Samples(ctx context.Context, _ string, count int) ([]float64, error) {
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.delay):
		}
	}

	if p.err != nil {
		return nil, p.err
	}

	if p.samples != nil {
		return p.samples, nil
	}

	out := make([]float64, count)
	for i := range out {
		out[i] = 0.8
	}

	return out, nil
}

// mockKnob implements uictl.Knob for testing.
type mockKnob struct {
	state bool
}

func (m *mockKnob) Read() bool { return m.state }
func (m *mockKnob) On()        { m.state = true }
func (m *mockKnob) Off()       { m.state = false }
func (m *mockKnob) Toggle()    { m.state = !m.state }

// mockCappedDial implements uictl.CappedDial[int64] for testing.
type mockCappedDial struct {
	current, max int64
}

func (m *mockCappedDial) Read() int64         { return m.current }
func (m *mockCappedDial) Cap() (int64, int64) { return m.current, m.max }

// mockLevels implements uictl.Levels[int16] for testing.
type mockLevels struct {
	samples []int16
}

func (m *mockLevels) Read() []int16 { return m.samples }
