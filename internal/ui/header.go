package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const appName = "relaydash"

// renderMain stacks header, tab bar, body, banner and footer.
func (m Model) renderMain() string {
	body := m.renderBody()
	bodyHeight := m.height - chromeHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	switch {
	case m.confirm != nil:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	case m.form != nil:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderForm())
	default:
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		body,
		m.renderBanner(),
		m.renderFooter(),
	)
}

func (m Model) renderBody() string {
	styles := m.theme.Styles()
	switch m.tab {
	case TabDevices:
		if len(m.snapshot.Devices) == 0 {
			return m.emptyState("No devices yet. Press a to add one.")
		}
		return m.devices.View()
	case TabSchedules:
		if len(m.snapshot.Schedules) == 0 {
			return m.emptyState("No schedules yet. Press a to add one.")
		}
		return m.schedules.View()
	case TabLogs:
		if len(m.snapshot.Logs) == 0 {
			return m.emptyState("No activity recorded.")
		}
		return m.logView.View()
	case TabDiagnostics:
		status := styles.FaintText.Render(fmt.Sprintf("client log · level ≥ %s", m.diagLevel))
		if m.follower != nil {
			status += styles.FaintText.Render(" · " + truncateMiddle(m.follower.Path(), 60))
		}
		if m.diagErr != "" {
			status += "  " + styles.DangerText.Render(m.diagErr)
		}
		return status + "\n" + m.diagView.View()
	}
	return ""
}

func (m Model) emptyState(text string) string {
	if !m.snapshot.HasData && (m.snapshot.Loading || m.pending > 0) {
		text = m.spinner.View() + " Loading..."
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Muted)).
		Padding(1, 2).
		Render(text)
}

// renderHeader shows connection state, activity and stats on one bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	conn := bg.Render("● live", styles.SuccessText)
	if !snap.Connected {
		conn = bg.Render("○ offline", styles.DangerText)
	}

	activity := ""
	if snap.Loading || m.pending > 0 {
		activity = bg.Render(m.spinner.View()+" syncing", styles.AccentText)
	}

	stats := ""
	if snap.HasData {
		s := snap.Stats
		stats = bg.Render(fmt.Sprintf("devices %d/%d online", s.OnlineDevices, s.TotalDevices), styles.Text) +
			bg.Spaces(2) +
			bg.Render(fmt.Sprintf("schedules %d/%d active", s.ActiveSchedules, s.TotalSchedules), styles.Text) +
			bg.Spaces(2) +
			bg.Render(fmt.Sprintf("runtime %.1fh", s.TotalRuntimeHours), styles.MutedText)
	}

	synced := ""
	if !snap.LastFetched.IsZero() {
		synced = bg.Render("synced "+relativeTime(snap.LastFetched, time.Now()), styles.FaintText)
	}

	left := bg.Join([]string{
		bg.Render(appName, styles.Logo),
		conn,
		activity,
		stats,
	}, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(synced) - 2
	line := bg.Spaces(1) + left
	if synced != "" && gap > 0 {
		line += bg.Spaces(gap) + synced
	}
	return bg.FillLine(line, m.width)
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			parts = append(parts, styles.TabActive.Render(label))
		} else {
			parts = append(parts, styles.TabInactive.Render(label))
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, " "))
}

// renderBanner shows the store's error banner, else the last notice.
func (m Model) renderBanner() string {
	styles := m.theme.Styles()
	if m.snapshot.Error != "" {
		return styles.Banner.Width(m.width).MaxWidth(m.width).Render(m.snapshot.Error)
	}
	if m.notice != "" {
		return styles.InfoText.Padding(0, 1).Render(truncate(m.notice, m.width-2))
	}
	return ""
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bindings := append(m.keys.tabKeys(m.tab), m.keys.ShortHelp()...)
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(m.help.ShortHelpView(bindings))
}
