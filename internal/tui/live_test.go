package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"
)

func TestMonitor_PauseResume(t *testing.T) {
	finishCalled := false
	controls := RecordingControls{
		StartStop:    &mockKnob{state: true},
		SampleLevels: &mockLevels{samples: []int16{1000, -2000, 3000}},
		Finish: func() {
			finishCalled = true
		},
	}

	monitor := NewMonitor(controls, "")
	tm := teatest.NewTestModel(t, monitor, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	// Capture is running on entry
	checker.checkString(t, tm, "Live")

	// Pause
	tm.Send(tea.KeyMsg{Type: tea.KeySpace})
	checker.checkString(t, tm, "Paused")

	// Resume
	tm.Send(tea.KeyMsg{Type: tea.KeySpace})
	checker.checkString(t, tm, "Live")

	// Stop
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.Eventually(t, func() bool {
		return finishCalled
	}, 1*time.Second, 50*time.Millisecond, "Finish callback should be called")
}

func TestMonitor_RecordingBudget(t *testing.T) {
	controls := RecordingControls{
		StartStop:    &mockKnob{state: true},
		FileSize:     &mockCappedDial{current: 5 * 1024 * 1024, max: 10 * 1024 * 1024},
		SampleLevels: &mockLevels{samples: []int16{512}},
		Finish:       func() {},
	}

	monitor := NewMonitor(controls, "take.mp3")
	tm := teatest.NewTestModel(t, monitor, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "Recording")
	checker.checkString(t, tm, "5.0 MB / 10.0 MB (50%)")
	checker.checkString(t, tm, "take.mp3")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}

func TestMonitor_UnlimitedBudget(t *testing.T) {
	controls := RecordingControls{
		StartStop:    &mockKnob{state: false},
		FileSize:     &mockCappedDial{current: 2 * 1024 * 1024, max: 0},
		SampleLevels: &mockLevels{samples: []int16{}},
		Finish:       func() {},
	}

	monitor := NewMonitor(controls, "take.wav")
	tm := teatest.NewTestModel(t, monitor, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	// Paused on entry, budget reads unlimited
	checker.checkString(t, tm, "Paused")
	checker.checkString(t, tm, "2.0 MB / unlimited")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}
