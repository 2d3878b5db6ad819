package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/session"
)

func withBackground(t *testing.T, dark bool) {
	t.Helper()
	orig := hasDarkBackground
	hasDarkBackground = func() bool { return dark }
	t.Cleanup(func() { hasDarkBackground = orig })
}

func TestIsDark(t *testing.T) {
	withBackground(t, false)
	assert.True(t, IsDark(session.ThemeDark))
	assert.False(t, IsDark(session.ThemeLight))
	assert.False(t, IsDark(session.ThemeSystem))

	withBackground(t, true)
	assert.True(t, IsDark(session.ThemeSystem))
	assert.False(t, IsDark(session.ThemeLight), "explicit light ignores the terminal")
}

func TestNewStylesPalette(t *testing.T) {
	assert.Equal(t, darkPalette, NewStyles(session.ThemeDark).Palette)
	assert.Equal(t, lightPalette, NewStyles(session.ThemeLight).Palette)
	assert.NotEqual(t, darkPalette.Success, lightPalette.Success)
}

func TestBadges(t *testing.T) {
	s := NewStyles(session.ThemeDark)

	assert.Contains(t, s.AccessBadge(true), "VALID")
	assert.Contains(t, s.AccessBadge(false), "INVALID")

	assert.Contains(t, s.VehicleBadge(gateway.VehicleApproved), "APPROVED")
	assert.Contains(t, s.VehicleBadge(gateway.VehicleDenied), "DENIED")
	assert.Contains(t, s.VehicleBadge(gateway.VehicleUnknown), "UNKNOWN")
	assert.Contains(t, s.VehicleBadge("PENDING"), "UNKNOWN")

	for _, st := range []gateway.AlertStatus{gateway.AlertActive, gateway.AlertResponding, gateway.AlertResolved} {
		assert.Contains(t, s.AlertBadge(st), string(st))
	}
}

func TestAlertStyleColors(t *testing.T) {
	s := NewStyles(session.ThemeDark)

	assert.Equal(t, s.Palette.Danger, s.alertStyle(gateway.AlertActive).GetForeground())
	assert.Equal(t, s.Palette.Warning, s.alertStyle(gateway.AlertResponding).GetForeground())
	assert.Equal(t, s.Palette.Success, s.alertStyle(gateway.AlertResolved).GetForeground())
}
