package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/session"
)

func (s Styles) field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(s.Label.Render(fmt.Sprintf("%-13s", label+":")))
	b.WriteString(s.Value.Render(value))
	b.WriteString("\n")
}

// RenderVerification renders the result of an access code check.
func RenderVerification(s Styles, code string, res *gateway.AccessVerificationResult) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Access code " + code))
	b.WriteString("  ")
	b.WriteString(s.AccessBadge(res.Valid))
	b.WriteString("\n")
	s.field(&b, "Visitor", res.VisitorName)
	s.field(&b, "Resident", res.ResidentName)
	s.field(&b, "Valid until", res.ValidUntil)
	s.field(&b, "Message", res.Message)
	return strings.TrimRight(b.String(), "\n")
}

// RenderCheckIn renders a check-in acknowledgement.
func RenderCheckIn(s Styles, code string, res *gateway.CheckInResult) string {
	msg := res.Message
	if msg == "" {
		msg = "Visitor checked in"
	}
	return s.Success.Render("✓ ") + s.Value.Render(msg) + s.Muted.Render(" ("+code+")")
}

// RenderVehicle renders a plate decision.
func RenderVehicle(s Styles, rec *gateway.VehicleRecord) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(rec.PlateNumber))
	b.WriteString("  ")
	b.WriteString(s.VehicleBadge(rec.Status))
	b.WriteString("\n")
	s.field(&b, "Vehicle", rec.MakeModel)
	s.field(&b, "Owner", rec.Owner)
	return strings.TrimRight(b.String(), "\n")
}

// RenderAlert renders one alert on a single line.
func RenderAlert(s Styles, a gateway.Alert) string {
	line := fmt.Sprintf("%s  %s  %s", s.AlertBadge(a.Status), s.Title.Render(a.ID), s.Value.Render(a.Type))
	if a.ResidentName != "" {
		line += s.Muted.Render(" • " + a.ResidentName)
	}
	if a.Description != "" {
		line += "\n    " + s.Subtitle.Render(a.Description)
	}
	return line
}

// RenderAlerts renders the alert list.
func RenderAlerts(s Styles, alerts []gateway.Alert) string {
	if len(alerts) == 0 {
		return s.Muted.Render("No active alerts")
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		lines = append(lines, RenderAlert(s, a))
	}
	return strings.Join(lines, "\n")
}

// RenderActivity renders the recent activity log, newest first.
func RenderActivity(s Styles, entries []session.ActivityEntry) string {
	if len(entries) == 0 {
		return s.Muted.Render("No recent activity")
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Recent activity"))
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render(time.UnixMilli(e.Timestamp).Local().Format("Jan 02 15:04")))
		b.WriteString("  ")
		b.WriteString(s.activityStyle(e.Type).Render(fmt.Sprintf("%-7s", e.Type)))
		b.WriteString(" ")
		b.WriteString(s.Value.Render(e.Title))
		if e.Subtitle != "" {
			b.WriteString(s.Muted.Render("  " + e.Subtitle))
		}
	}
	return b.String()
}

func (s Styles) activityStyle(kind session.ActivityType) lipgloss.Style {
	switch kind {
	case session.ActivityAlert:
		return s.Error
	case session.ActivityVehicle:
		return s.Info
	default:
		return s.Success
	}
}

// SessionView is what `auth status` shows.
type SessionView struct {
	LoggedIn  bool          `json:"logged_in"`
	User      *session.User `json:"user,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Expired   bool          `json:"expired"`
	BaseURL   string        `json:"base_url"`
}

// RenderSession renders the local session state.
func RenderSession(s Styles, v SessionView) string {
	if !v.LoggedIn {
		return s.Warning.Render("Logged out") + s.Muted.Render("  run 'progate auth login'")
	}

	var b strings.Builder
	b.WriteString(s.Success.Render("Logged in"))
	b.WriteString("\n")
	if v.User != nil {
		s.field(&b, "User", v.User.ID)
		s.field(&b, "Role", v.User.Role)
		estate := v.User.EstateID
		if v.User.EstateName != "" {
			estate = fmt.Sprintf("%s (%s)", v.User.EstateName, v.User.EstateID)
		}
		s.field(&b, "Estate", estate)
	}
	if v.ExpiresAt != nil {
		expiry := v.ExpiresAt.Local().Format(time.RFC1123)
		if v.Expired {
			expiry += " " + s.Error.Render("(expired)")
		}
		s.field(&b, "Token expiry", expiry)
	}
	s.field(&b, "Server", v.BaseURL)
	return strings.TrimRight(b.String(), "\n")
}
