package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/relay"
)

func deviceColumns(width int) []table.Column {
	switch {
	case width > 0 && width < LayoutCompactWidth:
		return []table.Column{
			{Title: "Name", Width: 18},
			{Title: "Room", Width: 12},
			{Title: "Status", Width: 10},
			{Title: "Relay", Width: 6},
		}
	case width >= LayoutWideWidth:
		return []table.Column{
			{Title: "Name", Width: 22},
			{Title: "Room", Width: 14},
			{Title: "Pin", Width: 4},
			{Title: "Status", Width: 10},
			{Title: "Relay", Width: 6},
			{Title: "Signal", Width: 12},
			{Title: "Uptime", Width: 9},
			{Title: "Runtime", Width: 9},
			{Title: "Last seen", Width: 12},
		}
	default:
		return []table.Column{
			{Title: "Name", Width: 20},
			{Title: "Room", Width: 14},
			{Title: "Pin", Width: 4},
			{Title: "Status", Width: 10},
			{Title: "Relay", Width: 6},
			{Title: "Signal", Width: 12},
			{Title: "Uptime", Width: 9},
		}
	}
}

func statusCell(s relay.DeviceStatus) string {
	switch s {
	case relay.StatusOnline:
		return "● online"
	case relay.StatusError:
		return "✕ error"
	case relay.StatusOffline:
		return "○ offline"
	default:
		return "? " + string(s)
	}
}

func relayCell(s relay.RelayState) string {
	if s == relay.RelayOn {
		return "ON"
	}
	return "off"
}

// deviceRows renders devices in store order so the table cursor indexes the
// snapshot directly.
func deviceRows(devices []relay.Device, now time.Time, compact, wide bool) []table.Row {
	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		if compact {
			rows = append(rows, table.Row{d.Name, d.Room, statusCell(d.Status), relayCell(d.RelayState)})
			continue
		}
		signal := signalBars(d.WiFiSignal)
		if d.WiFiSignal != 0 {
			signal += fmt.Sprintf(" %d", d.WiFiSignal)
		}
		row := table.Row{
			d.Name,
			d.Room,
			strconv.Itoa(d.GPIOPin),
			statusCell(d.Status),
			relayCell(d.RelayState),
			signal,
			humanizeDuration(d.UptimeDuration()),
		}
		if wide {
			row = append(row,
				fmt.Sprintf("%.1fh", d.RuntimeHours()),
				relativeTime(d.ParsedLastSeen(), now),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

func (m Model) selectedDevice() (relay.Device, bool) {
	i := m.devices.Cursor()
	if i < 0 || i >= len(m.snapshot.Devices) {
		return relay.Device{}, false
	}
	return m.snapshot.Devices[i], true
}

func (m Model) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Add):
		m.form = newDeviceForm(nil)
		return m, m.form.focusCmd()
	}

	d, ok := m.selectedDevice()
	if !ok {
		var cmd tea.Cmd
		m.devices, cmd = m.devices.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.TurnOn):
		return m.control(d, relay.RelayOn)
	case key.Matches(msg, m.keys.TurnOff):
		return m.control(d, relay.RelayOff)
	case key.Matches(msg, m.keys.ToggleRelay):
		return m.control(d, d.RelayState.Toggled())
	case key.Matches(msg, m.keys.Edit):
		m.form = newDeviceForm(&d)
		return m, m.form.focusCmd()
	case key.Matches(msg, m.keys.Delete):
		id := d.ID
		m.confirm = &confirmDialog{
			op:     gateway.OpDeleteDevice,
			prompt: fmt.Sprintf("Delete device %q and its schedules?", d.Name),
			run: func(ctx context.Context, g Gateway) error {
				return g.DeleteDevice(ctx, id)
			},
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.devices, cmd = m.devices.Update(msg)
	return m, cmd
}

// control sends a relay command. The row updates when the backend echoes
// the change over the push channel.
func (m Model) control(d relay.Device, target relay.RelayState) (tea.Model, tea.Cmd) {
	gw, id := m.gateway, d.ID
	cmd := m.intent(gateway.OpControlDevice, func(ctx context.Context) error {
		return gw.ControlDevice(ctx, id, target)
	})
	return m, cmd
}
