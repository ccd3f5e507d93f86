package trace

import (
	"charm.land/lipgloss/v2"
)

// Styles colors the category tags and banners of a trace block.
// The zero value renders plain text.
type Styles struct {
	Banner     lipgloss.Style
	Step       lipgloss.Style
	ToolCall   lipgloss.Style
	ToolResult lipgloss.Style
	Response   lipgloss.Style
	Other      lipgloss.Style

	enabled bool
}

// DefaultStyles returns the colored styles (Catppuccin Mocha palette).
func DefaultStyles() Styles {
	return Styles{
		Banner:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		Step:       lipgloss.NewStyle().Foreground(lipgloss.Color("#cba6f7")).Bold(true),
		ToolCall:   lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")).Bold(true),
		ToolResult: lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true),
		Response:   lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true),
		Other:      lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")).Bold(true),
		enabled:    true,
	}
}

// Enabled reports whether the styles emit color.
func (s Styles) Enabled() bool {
	return s.enabled
}

func (s Styles) apply(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}
