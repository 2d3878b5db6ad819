package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/session"
)

// Palette is the set of colors a theme renders with.
type Palette struct {
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Danger  lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color
}

var (
	darkPalette = Palette{
		Accent:  lipgloss.Color("63"),  // Purple
		Text:    lipgloss.Color("252"), // Light gray
		Muted:   lipgloss.Color("241"), // Gray
		Success: lipgloss.Color("46"),  // Green
		Danger:  lipgloss.Color("196"), // Red
		Warning: lipgloss.Color("226"), // Yellow
		Info:    lipgloss.Color("86"),  // Cyan
	}

	lightPalette = Palette{
		Accent:  lipgloss.Color("55"),
		Text:    lipgloss.Color("235"),
		Muted:   lipgloss.Color("244"),
		Success: lipgloss.Color("28"),
		Danger:  lipgloss.Color("160"),
		Warning: lipgloss.Color("136"),
		Info:    lipgloss.Color("31"),
	}
)

// hasDarkBackground is swapped in tests.
var hasDarkBackground = lipgloss.HasDarkBackground

// IsDark resolves a theme preference to a palette choice. The system mode
// follows the terminal background.
func IsDark(mode session.ThemeMode) bool {
	switch mode {
	case session.ThemeDark:
		return true
	case session.ThemeLight:
		return false
	default:
		return hasDarkBackground()
	}
}

// Styles contains lipgloss styles for command output and the dashboard
type Styles struct {
	Dark    bool
	Palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Info     lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Help     lipgloss.Style
}

// NewStyles builds the styles for a theme preference.
func NewStyles(mode session.ThemeMode) Styles {
	dark := IsDark(mode)
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return Styles{
		Dark:    dark,
		Palette: p,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted),
		Label: lipgloss.NewStyle().
			Foreground(p.Muted),
		Value: lipgloss.NewStyle().
			Foreground(p.Text),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Success),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Danger),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Warning),
		Info: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Info),
		Muted: lipgloss.NewStyle().
			Foreground(p.Muted),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(p.Muted),
	}
}

// AccessBadge renders the verdict of a code verification.
func (s Styles) AccessBadge(valid bool) string {
	if valid {
		return s.Success.Render("VALID")
	}
	return s.Error.Render("INVALID")
}

// VehicleBadge renders a plate decision. Anything the gate does not
// recognize is shown as UNKNOWN.
func (s Styles) VehicleBadge(status gateway.VehicleStatus) string {
	switch status {
	case gateway.VehicleApproved:
		return s.Success.Render(string(status))
	case gateway.VehicleDenied:
		return s.Error.Render(string(status))
	default:
		return s.Warning.Render(string(gateway.VehicleUnknown))
	}
}

// AlertBadge renders an alert lifecycle state.
func (s Styles) AlertBadge(status gateway.AlertStatus) string {
	return s.alertStyle(status).Render(string(status))
}

func (s Styles) alertStyle(status gateway.AlertStatus) lipgloss.Style {
	switch status {
	case gateway.AlertActive:
		return s.Error
	case gateway.AlertResponding:
		return s.Warning
	case gateway.AlertResolved:
		return s.Success
	default:
		return s.Muted
	}
}
