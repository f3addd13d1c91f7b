package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/theleftbit/waveview/internal/tui/style"
)

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

// formatBytes formats a byte count against its budget as a human-readable string.
func formatBytes(current, maxBytes int64) string {
	currentMB := float64(current) / (1024 * 1024)
	maxMB := float64(maxBytes) / (1024 * 1024)

	if maxBytes == 0 {
		return fmt.Sprintf("%.1f MB / unlimited", currentMB)
	}

	percent := int(float64(current) / float64(maxBytes) * 100)

	return fmt.Sprintf("%.1f MB / %.1f MB (%d%%)", currentMB, maxMB, percent)
}
