package theme

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	ColorPrimary   = lipgloss.Color("205") // headers, focused elements
	ColorMuted     = lipgloss.Color("240") // borders, unfocused elements
	ColorAccent    = lipgloss.Color("42")  // success, selected items
	ColorText      = lipgloss.Color("255") // normal text
	ColorError     = lipgloss.Color("196") // errors
	ColorStatus2xx = lipgloss.Color("42")
	ColorStatus3xx = lipgloss.Color("69")
	ColorStatus4xx = lipgloss.Color("219")
	ColorStatus5xx = lipgloss.Color("197")
)

// Common styles
var (
	Header = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	Text = lipgloss.NewStyle().
		Foreground(ColorText)

	Muted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	Accent = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	Error = lipgloss.NewStyle().
		Foreground(ColorError)

	Focused = lipgloss.NewStyle().
		Foreground(ColorPrimary)

	Unfocused = lipgloss.NewStyle().
			Foreground(ColorMuted)

	Button = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)

	ButtonActive = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(1, 2)

	ScopeItem = lipgloss.NewStyle().
			Foreground(ColorAccent)
)

// StatusStyle returns the style for an HTTP status code in the event pane.
func StatusStyle(code int) lipgloss.Style {
	switch {
	case code >= 500:
		return lipgloss.NewStyle().Foreground(ColorStatus5xx).Bold(true)
	case code >= 400:
		return lipgloss.NewStyle().Foreground(ColorStatus4xx)
	case code >= 300:
		return lipgloss.NewStyle().Foreground(ColorStatus3xx)
	default:
		return lipgloss.NewStyle().Foreground(ColorStatus2xx)
	}
}
