package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

func scheduleColumns(width int) []table.Column {
	if width > 0 && width < LayoutCompactWidth {
		return []table.Column{
			{Title: "Name", Width: 16},
			{Title: "Device", Width: 16},
			{Title: "When", Width: 14},
			{Title: "State", Width: 8},
		}
	}
	return []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Device", Width: 20},
		{Title: "Type", Width: 7},
		{Title: "When", Width: 17},
		{Title: "Days", Width: 28},
		{Title: "Target", Width: 6},
		{Title: "State", Width: 8},
	}
}

// scheduleWhen renders the trigger: "19:00" or "2026-03-01 07:30" for
// one-shot schedules.
func scheduleWhen(s relay.Schedule) string {
	if s.ScheduleType == relay.ScheduleOnce && s.TriggerDate != "" {
		date := s.TriggerDate
		if len(date) > 10 {
			date = date[:10]
		}
		return date + " " + s.TriggerTime
	}
	return s.TriggerTime
}

func scheduleDays(s relay.Schedule) string {
	switch s.ScheduleType {
	case relay.ScheduleDaily:
		return "every day"
	case relay.ScheduleWeekly:
		return s.DaysLabel()
	default:
		return ""
	}
}

func activeCell(active bool) string {
	if active {
		return "active"
	}
	return "paused"
}

// scheduleRows resolves device names at render time; references that no
// longer resolve show "Unknown Device".
func scheduleRows(snap state.Snapshot, compact bool) []table.Row {
	rows := make([]table.Row, 0, len(snap.Schedules))
	for _, s := range snap.Schedules {
		device := snap.DeviceName(s.DeviceID)
		if compact {
			rows = append(rows, table.Row{s.Name, device, scheduleWhen(s), activeCell(s.IsActive)})
			continue
		}
		rows = append(rows, table.Row{
			s.Name,
			device,
			string(s.ScheduleType),
			scheduleWhen(s),
			scheduleDays(s),
			relayCell(s.TargetState),
			activeCell(s.IsActive),
		})
	}
	return rows
}

func (m Model) selectedSchedule() (relay.Schedule, bool) {
	i := m.schedules.Cursor()
	if i < 0 || i >= len(m.snapshot.Schedules) {
		return relay.Schedule{}, false
	}
	return m.snapshot.Schedules[i], true
}

func (m Model) handleSchedulesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Add) {
		m.form = newScheduleForm(nil, m.snapshot)
		return m, m.form.focusCmd()
	}

	s, ok := m.selectedSchedule()
	if !ok {
		var cmd tea.Cmd
		m.schedules, cmd = m.schedules.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.ToggleSchedule):
		gw, id := m.gateway, s.ID
		cmd := m.intent(gateway.OpToggleSchedule, func(ctx context.Context) error {
			return gw.ToggleSchedule(ctx, id)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		m.form = newScheduleForm(&s, m.snapshot)
		return m, m.form.focusCmd()
	case key.Matches(msg, m.keys.Delete):
		id := s.ID
		m.confirm = &confirmDialog{
			op:     gateway.OpDeleteSchedule,
			prompt: fmt.Sprintf("Delete schedule %q?", s.Name),
			run: func(ctx context.Context, g Gateway) error {
				return g.DeleteSchedule(ctx, id)
			},
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.schedules, cmd = m.schedules.Update(msg)
	return m, cmd
}
