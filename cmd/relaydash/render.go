package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeDevices(w io.Writer, devices []relay.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices.")
		return
	}
	t := newTable("ID", "Name", "Room", "Pin", "Status", "Relay", "Signal", "Runtime")
	for _, d := range devices {
		t.Row(
			d.ID,
			d.Name,
			d.Room,
			strconv.Itoa(d.GPIOPin),
			string(d.Status),
			string(d.RelayState),
			fmt.Sprintf("%d dBm", d.WiFiSignal),
			fmt.Sprintf("%.1fh", d.RuntimeHours()),
		)
	}
	fmt.Fprintln(w, t.String())
}

func writeDevice(w io.Writer, d relay.Device) {
	lines := []string{
		fmt.Sprintf("%s (%s)", d.Name, d.ID),
		fmt.Sprintf("room        %s", d.Room),
		fmt.Sprintf("type        %s", d.DeviceType),
		fmt.Sprintf("gpio pin    %d", d.GPIOPin),
		fmt.Sprintf("status      %s", d.Status),
		fmt.Sprintf("relay       %s", d.RelayState),
		fmt.Sprintf("signal      %d dBm", d.WiFiSignal),
		fmt.Sprintf("uptime      %s", d.UptimeDuration()),
		fmt.Sprintf("runtime     %.1fh", d.RuntimeHours()),
	}
	if d.IPAddress != "" {
		lines = append(lines, fmt.Sprintf("address     %s", d.IPAddress))
	}
	if d.LastSeen != "" {
		lines = append(lines, fmt.Sprintf("last seen   %s", d.LastSeen))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func writeSchedules(w io.Writer, snap state.Snapshot) {
	if len(snap.Schedules) == 0 {
		fmt.Fprintln(w, "No schedules.")
		return
	}
	t := newTable("ID", "Name", "Device", "Type", "When", "Days", "Target", "Active")
	for _, s := range snap.Schedules {
		when := s.TriggerTime
		if s.ScheduleType == relay.ScheduleOnce && len(s.TriggerDate) >= 10 {
			when = s.TriggerDate[:10] + " " + s.TriggerTime
		}
		t.Row(
			s.ID,
			s.Name,
			snap.DeviceName(s.DeviceID),
			string(s.ScheduleType),
			when,
			s.DaysLabel(),
			string(s.TargetState),
			strconv.FormatBool(s.IsActive),
		)
	}
	fmt.Fprintln(w, t.String())
}

func writeLogs(w io.Writer, snap state.Snapshot) {
	if len(snap.Logs) == 0 {
		fmt.Fprintln(w, "No activity recorded.")
		return
	}
	t := newTable("Time", "Device", "Action", "Change", "By")
	for _, l := range snap.Logs {
		ts := l.Timestamp
		if parsed := l.ParsedTimestamp(); !parsed.IsZero() {
			ts = parsed.Format("2006-01-02 15:04:05")
		}
		t.Row(ts, snap.DeviceName(l.DeviceID), l.Action, l.Transition(), l.TriggeredBy)
	}
	fmt.Fprintln(w, t.String())
}

func writeInfo(w io.Writer, backend string, info relay.Info, stats relay.Stats) {
	lines := []string{
		fmt.Sprintf("%s (version %s)", info.Message, info.Version),
		fmt.Sprintf("backend     %s", backend),
		fmt.Sprintf("devices     %d total, %d online, %d offline", stats.TotalDevices, stats.OnlineDevices, stats.OfflineDevices),
		fmt.Sprintf("schedules   %d total, %d active", stats.TotalSchedules, stats.ActiveSchedules),
		fmt.Sprintf("runtime     %.1fh", stats.TotalRuntimeHours),
	}
	if stats.SystemUptime != "" {
		lines = append(lines, fmt.Sprintf("uptime      %s", stats.SystemUptime))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
