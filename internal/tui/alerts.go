package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/ux"
)

// DefaultPollInterval is how often the dashboard reloads alerts.
const DefaultPollInterval = 15 * time.Second

// AlertSource is the part of the gateway client the dashboard needs.
type AlertSource interface {
	ListAlerts(ctx context.Context) ([]gateway.Alert, error)
	UpdateAlertStatus(ctx context.Context, id string, status gateway.AlertStatus) (*gateway.Alert, error)
}

type alertKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Respond key.Binding
	Resolve key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k alertKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Respond, k.Resolve, k.Refresh, k.Quit}
}

func (k alertKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var alertKeys = alertKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Respond: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "responding")),
	Resolve: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "resolve")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type alertsLoadedMsg struct {
	alerts []gateway.Alert
	err    error
	at     time.Time
}

type alertUpdatedMsg struct {
	alert *gateway.Alert
	id    string
	err   error
}

type pollMsg time.Time

// AlertsModel is the live alerts dashboard.
type AlertsModel struct {
	ctx      context.Context
	source   AlertSource
	interval time.Duration
	styles   Styles

	table   table.Model
	spinner spinner.Model
	help    help.Model

	alerts      []gateway.Alert
	loading     bool
	lastUpdated time.Time
	notice      string
	err         error
	quitting    bool
}

// NewAlertsModel creates the dashboard. A non-positive interval uses
// DefaultPollInterval.
func NewAlertsModel(ctx context.Context, source AlertSource, styles Styles, interval time.Duration) AlertsModel {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 12},
			{Title: "Status", Width: 11},
			{Title: "Type", Width: 10},
			{Title: "Resident", Width: 18},
			{Title: "Description", Width: 32},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(styles.Palette.Accent).Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.Palette.Text).Background(styles.Palette.Accent)
	t.SetStyles(ts)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Info

	return AlertsModel{
		ctx:      ctx,
		source:   source,
		interval: interval,
		styles:   styles,
		table:    t,
		spinner:  sp,
		help:     help.New(),
		loading:  true,
	}
}

// Init starts the first load and the poll timer (required by Bubble Tea)
func (m AlertsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), m.schedulePoll())
}

func (m AlertsModel) fetch() tea.Cmd {
	return func() tea.Msg {
		alerts, err := m.source.ListAlerts(m.ctx)
		return alertsLoadedMsg{alerts: alerts, err: err, at: time.Now()}
	}
}

func (m AlertsModel) schedulePoll() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m AlertsModel) update(id string, status gateway.AlertStatus) tea.Cmd {
	return func() tea.Msg {
		alert, err := m.source.UpdateAlertStatus(m.ctx, id, status)
		return alertUpdatedMsg{alert: alert, id: id, err: err}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m AlertsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		if msg.Height > 8 {
			m.table.SetHeight(msg.Height - 8)
		}
		return m, nil

	case pollMsg:
		// The poll chain is only rescheduled here so manual refreshes never
		// start a second timer.
		m.loading = true
		return m, tea.Batch(m.fetch(), m.schedulePoll())

	case alertsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.lastUpdated = msg.at
		m.setAlerts(msg.alerts)
		return m, nil

	case alertUpdatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		status := ""
		if msg.alert != nil {
			status = string(msg.alert.Status)
		}
		m.notice = strings.TrimSpace(fmt.Sprintf("Alert %s updated %s", msg.id, status))
		m.loading = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m AlertsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, alertKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, alertKeys.Refresh):
		m.loading = true
		m.notice = ""
		return m, m.fetch()

	case key.Matches(msg, alertKeys.Respond):
		return m.transition(gateway.AlertResponding)

	case key.Matches(msg, alertKeys.Resolve):
		return m.transition(gateway.AlertResolved)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m AlertsModel) transition(status gateway.AlertStatus) (tea.Model, tea.Cmd) {
	alert, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if alert.Status == status {
		m.notice = fmt.Sprintf("Alert %s is already %s", alert.ID, status)
		return m, nil
	}
	m.notice = fmt.Sprintf("Updating alert %s…", alert.ID)
	return m, m.update(alert.ID, status)
}

func (m *AlertsModel) setAlerts(alerts []gateway.Alert) {
	m.alerts = alerts
	rows := make([]table.Row, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, table.Row{a.ID, string(a.Status), a.Type, a.ResidentName, a.Description})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the highlighted alert.
func (m AlertsModel) Selected() (gateway.Alert, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.alerts) {
		return gateway.Alert{}, false
	}
	return m.alerts[c], true
}

// Alerts returns the alerts currently shown.
func (m AlertsModel) Alerts() []gateway.Alert {
	return m.alerts
}

// View renders the dashboard (required by Bubble Tea)
func (m AlertsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Panic alerts"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	} else if !m.lastUpdated.IsZero() {
		b.WriteString(m.styles.Muted.Render("  updated " + m.lastUpdated.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if len(m.alerts) == 0 && !m.loading {
		b.WriteString(m.styles.Muted.Render("No active alerts"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if alert, ok := m.Selected(); ok {
		b.WriteString("\n" + m.styles.AlertBadge(alert.Status) + " " + m.styles.Value.Render(alert.Description))
	}
	if m.err != nil {
		b.WriteString("\n" + m.styles.Error.Render("✗ "+ux.OperatorMessage(m.err)))
	} else if m.notice != "" {
		b.WriteString("\n" + m.styles.Info.Render(m.notice))
	}

	b.WriteString("\n\n" + m.help.View(alertKeys))
	return b.String()
}

// RunAlertsDashboard runs the dashboard until the operator quits or ctx is
// cancelled.
func RunAlertsDashboard(ctx context.Context, source AlertSource, styles Styles, interval time.Duration) error {
	model := NewAlertsModel(ctx, source, styles, interval)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("alerts dashboard: %w", err)
	}
	return nil
}
