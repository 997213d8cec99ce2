package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/realtime"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (g *fakeGateway) record(call string, op gateway.Op) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
	if g.err != nil {
		return &gateway.MutationError{Op: op, Err: g.err}
	}
	return nil
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Refresh(context.Context) error {
	return g.record("Refresh", gateway.OpRefresh)
}

func (g *fakeGateway) ControlDevice(_ context.Context, id string, s relay.RelayState) error {
	return g.record(fmt.Sprintf("ControlDevice %s %s", id, s), gateway.OpControlDevice)
}

func (g *fakeGateway) AddDevice(_ context.Context, in relay.NewDevice) error {
	return g.record(fmt.Sprintf("AddDevice %s %s %d", in.Name, in.Room, in.GPIOPin), gateway.OpAddDevice)
}

func (g *fakeGateway) UpdateDevice(_ context.Context, id string, _ relay.DeviceUpdate) error {
	return g.record("UpdateDevice "+id, gateway.OpUpdateDevice)
}

func (g *fakeGateway) DeleteDevice(_ context.Context, id string) error {
	return g.record("DeleteDevice "+id, gateway.OpDeleteDevice)
}

func (g *fakeGateway) AddSchedule(_ context.Context, in relay.NewSchedule) error {
	return g.record("AddSchedule "+in.Name, gateway.OpAddSchedule)
}

func (g *fakeGateway) UpdateSchedule(_ context.Context, id string, _ relay.NewSchedule) error {
	return g.record("UpdateSchedule "+id, gateway.OpUpdateSchedule)
}

func (g *fakeGateway) ToggleSchedule(_ context.Context, id string) error {
	return g.record("ToggleSchedule "+id, gateway.OpToggleSchedule)
}

func (g *fakeGateway) DeleteSchedule(_ context.Context, id string) error {
	return g.record("DeleteSchedule "+id, gateway.OpDeleteSchedule)
}

type fakeChannel struct {
	connected bool
	state     realtime.State
}

func (c *fakeChannel) Disconnect() bool { return c.connected }

func (c *fakeChannel) State() realtime.State { return c.state }

func newTestModel(t *testing.T, gw Gateway) (Model, *state.Store) {
	t.Helper()
	snap := sampleSnapshot()
	store := &state.Store{}
	store.ReplaceAll(snap.Devices, snap.Schedules, snap.Logs, relay.Stats{TotalDevices: 2, OnlineDevices: 1})

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := New(Options{
		Gateway:   gw,
		Store:     store,
		Channel:   &fakeChannel{connected: true, state: realtime.Connected},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Logger:    logger,
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, snapshotMsg(store.Snapshot()))
	return m, store
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func pressType(t *testing.T, m Model, kt tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: kt})
}

// finish runs an intent command and feeds its result back into the model.
func finish(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected an intent command")
	}
	msg, ok := cmd().(intentResultMsg)
	if !ok {
		t.Fatalf("command did not produce an intent result")
	}
	m, _ = update(t, m, msg)
	return m
}

func TestControlKeysSendIntents(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestModel(t, gw)

	m, cmd := press(t, m, "o")
	if m.pending != 1 {
		t.Fatalf("pending = %d, want 1", m.pending)
	}
	m = finish(t, m, cmd)
	if m.pending != 0 {
		t.Fatalf("pending after result = %d, want 0", m.pending)
	}
	if m.notice != "Command sent" {
		t.Fatalf("notice = %q", m.notice)
	}

	m, cmd = pressType(t, m, tea.KeySpace)
	m = finish(t, m, cmd)

	want := []string{"ControlDevice dev-1 on", "ControlDevice dev-1 on"}
	if got := gw.Calls(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestAddDeviceFormStaysOpenUntilSuccess(t *testing.T) {
	gw := &fakeGateway{err: errors.New("device limit reached")}
	m, _ := newTestModel(t, gw)

	m, _ = press(t, m, "a")
	if m.form == nil || m.form.op() != gateway.OpAddDevice {
		t.Fatalf("add form not opened")
	}
	m, _ = press(t, m, "Lamp 2")
	m, _ = pressType(t, m, tea.KeyTab)
	m, _ = press(t, m, "Hall")
	m, _ = pressType(t, m, tea.KeyTab)
	m, _ = press(t, m, "22")

	m, cmd := pressType(t, m, tea.KeyEnter)
	if !m.form.busy {
		t.Fatalf("form should be busy while the intent runs")
	}
	m = finish(t, m, cmd)
	if m.form == nil {
		t.Fatalf("form closed after a failed intent")
	}
	if m.form.busy || m.form.err != "device limit reached" {
		t.Fatalf("form state = busy %v err %q", m.form.busy, m.form.err)
	}

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	m, cmd = pressType(t, m, tea.KeyEnter)
	m = finish(t, m, cmd)
	if m.form != nil {
		t.Fatalf("form still open after success")
	}
	if m.notice != "Device added" {
		t.Fatalf("notice = %q", m.notice)
	}

	want := []string{"AddDevice Lamp 2 Hall 22", "AddDevice Lamp 2 Hall 22"}
	if got := gw.Calls(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestInvalidFormNeverReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestModel(t, gw)

	m, _ = press(t, m, "a")
	m, cmd := pressType(t, m, tea.KeyEnter)
	if cmd != nil {
		t.Fatalf("invalid form produced a command")
	}
	if m.form == nil || m.form.err == "" {
		t.Fatalf("expected form error, got %+v", m.form)
	}
	if m.pending != 0 || len(gw.Calls()) != 0 {
		t.Fatalf("gateway called for invalid input: %v", gw.Calls())
	}

	m, _ = pressType(t, m, tea.KeyEsc)
	if m.form != nil {
		t.Fatalf("esc did not close the form")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestModel(t, gw)

	m, _ = press(t, m, "d")
	if m.confirm == nil {
		t.Fatalf("delete did not ask for confirmation")
	}
	m, _ = press(t, m, "n")
	if m.confirm != nil || len(gw.Calls()) != 0 {
		t.Fatalf("cancel left confirm %v, calls %v", m.confirm, gw.Calls())
	}

	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "y")
	m = finish(t, m, cmd)
	if got := gw.Calls(); len(got) != 1 || got[0] != "DeleteDevice dev-1" {
		t.Fatalf("calls = %v", got)
	}
	if m.notice != "Device deleted" {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestScheduleTabToggleAndEdit(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestModel(t, gw)

	m, _ = press(t, m, "2")
	if m.tab != TabSchedules {
		t.Fatalf("tab = %v, want schedules", m.tab)
	}
	m, cmd := press(t, m, "t")
	m = finish(t, m, cmd)

	m, _ = press(t, m, "e")
	if m.form == nil || m.form.op() != gateway.OpUpdateSchedule {
		t.Fatalf("edit form not opened")
	}
	if got := m.form.fields[0].input.Value(); got != "Lamp" {
		t.Fatalf("device field = %q, want Lamp", got)
	}
	m, cmd = pressType(t, m, tea.KeyEnter)
	_ = finish(t, m, cmd)

	want := []string{"ToggleSchedule sch-1", "UpdateSchedule sch-1"}
	if got := gw.Calls(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestViewShowsStoreBanner(t *testing.T) {
	m, store := newTestModel(t, &fakeGateway{})
	store.SetError(gateway.OpDeleteSchedule.Banner())
	m, _ = update(t, m, snapshotMsg(store.Snapshot()))

	view := m.View()
	if !strings.Contains(view, "Failed to delete schedule") {
		t.Fatalf("view missing banner:\n%s", view)
	}
	if !strings.Contains(view, "Lamp") {
		t.Fatalf("view missing device row:\n%s", view)
	}
}

func TestReconnectKeyDropsChannel(t *testing.T) {
	tests := []struct {
		name    string
		channel *fakeChannel
		want    string
	}{
		{"connected", &fakeChannel{connected: true, state: realtime.Connected}, "reconnecting"},
		{"dialing", &fakeChannel{state: realtime.Connecting}, "attempt in progress"},
		{"waiting", &fakeChannel{state: realtime.Disconnected}, "reconnect scheduled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, &fakeGateway{})
			m.channel = tt.channel
			m, _ = press(t, m, "R")
			if !strings.Contains(m.notice, tt.want) {
				t.Fatalf("notice = %q, want it to mention %q", m.notice, tt.want)
			}
		})
	}
}
