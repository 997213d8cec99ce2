package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

type formKind int

const (
	formAddDevice formKind = iota
	formEditDevice
	formAddSchedule
	formEditSchedule
)

type formField struct {
	label string
	hint  string
	input textinput.Model
}

// form is a modal dialog of text fields. It stays open until the intent it
// submits succeeds.
type form struct {
	kind     formKind
	title    string
	targetID string
	original relay.Device
	fields   []formField
	focus    int
	err      string
	busy     bool
}

func (f *form) op() gateway.Op {
	switch f.kind {
	case formEditDevice:
		return gateway.OpUpdateDevice
	case formAddSchedule:
		return gateway.OpAddSchedule
	case formEditSchedule:
		return gateway.OpUpdateSchedule
	default:
		return gateway.OpAddDevice
	}
}

func newField(label, hint, value string) formField {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = hint
	in.CharLimit = 64
	in.Width = 32
	in.SetValue(value)
	return formField{label: label, hint: hint, input: in}
}

func newDeviceForm(d *relay.Device) *form {
	f := &form{kind: formAddDevice, title: "Add device"}
	var name, room, pin, typ string
	if d != nil {
		f.kind = formEditDevice
		f.title = "Edit device"
		f.targetID = d.ID
		f.original = *d
		name, room, pin, typ = d.Name, d.Room, strconv.Itoa(d.GPIOPin), string(d.DeviceType)
	}
	f.fields = []formField{
		newField("Name", "Living room lamp", name),
		newField("Room", "Living room", room),
		newField("GPIO pin", "17", pin),
	}
	if d == nil {
		f.fields = append(f.fields, newField("Type", "relay, switch or sensor", typ))
	}
	f.setFocus(0)
	return f
}

func newScheduleForm(s *relay.Schedule, snap state.Snapshot) *form {
	f := &form{kind: formAddSchedule, title: "Add schedule"}
	var device, name, typ, target, at, days string
	typ, target = string(relay.ScheduleDaily), string(relay.RelayOn)
	if s != nil {
		f.kind = formEditSchedule
		f.title = "Edit schedule"
		f.targetID = s.ID
		device = s.DeviceID
		if d, ok := snap.Device(s.DeviceID); ok {
			device = d.Name
		}
		name, typ, target, at = s.Name, string(s.ScheduleType), string(s.TargetState), s.TriggerTime
		switch s.ScheduleType {
		case relay.ScheduleWeekly:
			days = s.DaysLabel()
		case relay.ScheduleOnce:
			days = s.TriggerDate
			if len(days) > 10 {
				days = days[:10]
			}
		}
	}
	f.fields = []formField{
		newField("Device", "name or id", device),
		newField("Name", "Evening lights", name),
		newField("Type", "daily, weekly or once", typ),
		newField("Target", "on or off", target),
		newField("Time", "HH:MM", at),
		newField("Days / date", "mon,wed or 2026-03-01", days),
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	n := len(f.fields)
	f.focus = ((i % n) + n) % n
	for j := range f.fields {
		if j == f.focus {
			f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
}

func (f *form) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f *form) values() []string {
	out := make([]string, len(f.fields))
	for i, field := range f.fields {
		out[i] = strings.TrimSpace(field.input.Value())
	}
	return out
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form = nil
		return m, nil
	case f.busy:
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.submitForm()
	case key.Matches(msg, m.keys.NextField):
		f.setFocus(f.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.setFocus(f.focus - 1)
		return m, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return m, cmd
}

// submitForm parses the fields and sends the intent. Parse errors keep the
// form open without contacting the backend.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	values := f.values()
	gw := m.gateway

	var run func(context.Context) error
	switch f.kind {
	case formAddDevice:
		in, err := parseNewDevice(values)
		if err != nil {
			f.err = err.Error()
			return m, nil
		}
		run = func(ctx context.Context) error { return gw.AddDevice(ctx, in) }
	case formEditDevice:
		in, err := parseDeviceUpdate(values, f.original)
		if err != nil {
			f.err = err.Error()
			return m, nil
		}
		id := f.targetID
		run = func(ctx context.Context) error { return gw.UpdateDevice(ctx, id, in) }
	case formAddSchedule, formEditSchedule:
		in, err := parseSchedule(values, m.snapshot)
		if err != nil {
			f.err = err.Error()
			return m, nil
		}
		if f.kind == formAddSchedule {
			run = func(ctx context.Context) error { return gw.AddSchedule(ctx, in) }
		} else {
			id := f.targetID
			run = func(ctx context.Context) error { return gw.UpdateSchedule(ctx, id, in) }
		}
	}

	f.err = ""
	f.busy = true
	cmd := m.intent(f.op(), run)
	return m, cmd
}

func parseNewDevice(values []string) (relay.NewDevice, error) {
	if len(values) < 3 {
		return relay.NewDevice{}, fmt.Errorf("missing fields")
	}
	pin, err := strconv.Atoi(values[2])
	if err != nil {
		return relay.NewDevice{}, fmt.Errorf("GPIO pin must be a number")
	}
	in := relay.NewDevice{Name: values[0], Room: values[1], GPIOPin: pin}
	if len(values) > 3 && values[3] != "" {
		in.DeviceType = relay.DeviceType(strings.ToLower(values[3]))
	}
	return in, in.Validate()
}

// parseDeviceUpdate returns only the fields that differ from the original.
func parseDeviceUpdate(values []string, original relay.Device) (relay.DeviceUpdate, error) {
	var out relay.DeviceUpdate
	if len(values) < 3 {
		return out, fmt.Errorf("missing fields")
	}
	if values[0] == "" || values[1] == "" {
		return out, fmt.Errorf("name and room are required")
	}
	pin, err := strconv.Atoi(values[2])
	if err != nil || pin < 0 {
		return out, fmt.Errorf("GPIO pin must be a non-negative number")
	}
	if values[0] != original.Name {
		out.Name = &values[0]
	}
	if values[1] != original.Room {
		out.Room = &values[1]
	}
	if pin != original.GPIOPin {
		out.GPIOPin = &pin
	}
	if out.Empty() {
		return out, fmt.Errorf("nothing changed")
	}
	return out, nil
}

func parseSchedule(values []string, snap state.Snapshot) (relay.NewSchedule, error) {
	if len(values) < 6 {
		return relay.NewSchedule{}, fmt.Errorf("missing fields")
	}
	deviceID, err := resolveDeviceRef(snap, values[0])
	if err != nil {
		return relay.NewSchedule{}, err
	}
	target, err := relay.ParseRelayState(values[3])
	if err != nil {
		return relay.NewSchedule{}, err
	}
	in := relay.NewSchedule{
		DeviceID:     deviceID,
		Name:         values[1],
		ScheduleType: relay.ScheduleType(strings.ToLower(values[2])),
		TargetState:  target,
		TriggerTime:  values[4],
		DaysOfWeek:   []int{},
	}
	switch in.ScheduleType {
	case relay.ScheduleWeekly:
		days, err := relay.ParseDays(values[5])
		if err != nil {
			return relay.NewSchedule{}, err
		}
		in.DaysOfWeek = days
	case relay.ScheduleOnce:
		date, err := relay.ParseTriggerDate(values[5])
		if err != nil {
			return relay.NewSchedule{}, err
		}
		in.TriggerDate = date
	}
	return in, in.Validate()
}

func resolveDeviceRef(snap state.Snapshot, ref string) (string, error) {
	d, err := snap.FindDevice(ref)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

func (m Model) renderForm() string {
	f := m.form
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(f.title))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color(m.theme.Muted))
	focusLabel := labelStyle.Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)
	for i, field := range f.fields {
		ls := labelStyle
		if i == f.focus {
			ls = focusLabel
		}
		b.WriteString(ls.Render(field.label))
		b.WriteString(field.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case f.busy:
		b.WriteString(m.spinner.View() + styles.MutedText.Render(" Saving..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(truncate(f.err, 56)))
	default:
		b.WriteString(styles.FaintText.Render("enter save · tab next field · esc cancel"))
	}
	return styles.Dialog.Width(60).Render(b.String())
}
