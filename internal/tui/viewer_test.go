package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

func TestViewer_PagesThroughTracks(t *testing.T) {
	provider := &fakeProvider{}
	viewer := NewViewer(provider, []string{"first.wav", "second.wav"}, ViewerConfig{})

	tm := teatest.NewTestModel(t, viewer, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	// First track loads on launch
	checker.checkString(t, tm, "first.wav")
	checker.checkString(t, tm, "(1/2)")
	checker.checkString(t, tm, "samples")

	// Next track
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	checker.checkString(t, tm, "second.wav")
	checker.checkString(t, tm, "(2/2)")

	// Wraps around to the first track
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	checker.checkString(t, tm, "(1/2)")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}

func TestViewer_CyclesShapers(t *testing.T) {
	provider := &fakeProvider{}
	viewer := NewViewer(provider, []string{"memo.wav"}, ViewerConfig{})

	tm := teatest.NewTestModel(t, viewer, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "linear")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	checker.checkString(t, tm, "braille")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	checker.checkString(t, tm, "circular")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}

func TestViewer_AdjustsConfiguration(t *testing.T) {
	provider := &fakeProvider{}
	viewer := NewViewer(provider, []string{"memo.wav"}, ViewerConfig{})

	tm := teatest.NewTestModel(t, viewer, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "scale 2.0")

	// Zoom in refetches at the new density
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	checker.checkString(t, tm, "scale 2.5")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	checker.checkString(t, tm, "damped")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}

func TestViewer_ShowsProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("decode exploded")}
	viewer := NewViewer(provider, []string{"broken.wav"}, ViewerConfig{})

	tm := teatest.NewTestModel(t, viewer, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	// Error indicator replaces the waveform, status carries the cause
	checker.checkString(t, tm, "waveform unavailable")
	checker.checkString(t, tm, "decode exploded")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}
