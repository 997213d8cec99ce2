package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/relaydash/internal/state"
)

// renderLogLines formats the activity log, newest first as received.
func renderLogLines(snap state.Snapshot, theme Theme) string {
	if len(snap.Logs) == 0 {
		return ""
	}
	styles := theme.Styles()
	deviceStyle := styles.Text.Width(22)
	actionStyle := styles.AccentText.Width(16)

	var b strings.Builder
	for i, entry := range snap.Logs {
		ts := entry.Timestamp
		if t := entry.ParsedTimestamp(); !t.IsZero() {
			ts = t.Local().Format("2006-01-02 15:04:05")
		}
		b.WriteString(styles.FaintText.Render(padRight(ts, 20)))
		b.WriteString(deviceStyle.Render(truncate(snap.DeviceName(entry.DeviceID), 20)))
		b.WriteString(actionStyle.Render(truncate(entry.Action, 15)))

		if tr := entry.Transition(); tr != "" {
			color := styles.StatusColor(entry.NewState)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Width(12).Render(tr))
		} else {
			b.WriteString(strings.Repeat(" ", 12))
		}
		if entry.TriggeredBy != "" {
			b.WriteString(styles.MutedText.Render("by " + entry.TriggeredBy))
		}
		if i < len(snap.Logs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
