package syncer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/relay/relaytest"
	"github.com/five82/relaydash/internal/state"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recordingSink wraps a store and counts loading transitions.
type recordingSink struct {
	*state.Store

	mu       sync.Mutex
	loading  []bool
	errors   []string
	replaced int
}

func (r *recordingSink) ReplaceAll(d []relay.Device, s []relay.Schedule, l []relay.LogEntry, st relay.Stats) bool {
	r.mu.Lock()
	r.replaced++
	r.mu.Unlock()
	return r.Store.ReplaceAll(d, s, l, st)
}

func (r *recordingSink) SetLoading(v bool) {
	r.mu.Lock()
	r.loading = append(r.loading, v)
	r.mu.Unlock()
	r.Store.SetLoading(v)
}

func (r *recordingSink) SetError(msg string) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.mu.Unlock()
	r.Store.SetError(msg)
}

func newSyncer(t *testing.T, backend *relaytest.Backend, sink Sink) *Syncer {
	t.Helper()
	client, err := relay.NewClient(backend.URL())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	s, err := New(client, sink, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(nil, &state.Store{}, Options{}); err == nil {
		t.Fatalf("New accepted nil api")
	}
	client, _ := relay.NewClient("")
	if _, err := New(client, nil, Options{}); err == nil {
		t.Fatalf("New accepted nil sink")
	}
}

func TestFetchAll_ReplacesStoreAndRequestsRecentLogs(t *testing.T) {
	backend := relaytest.New(t, []relay.Device{
		{ID: "A", Name: "Lamp", Status: relay.StatusOnline, RelayState: relay.RelayOff},
	}, []relay.Schedule{
		{ID: "s1", DeviceID: "A", Name: "Evening", ScheduleType: relay.ScheduleDaily, TargetState: relay.RelayOn, TriggerTime: "19:00", IsActive: true},
	})
	for i := 0; i < 60; i++ {
		backend.AddLog(relay.LogEntry{ID: string(rune('a' + i%26)), DeviceID: "A", Action: "relay_on"})
	}
	backend.SetStats(relay.Stats{TotalDevices: 1, OnlineDevices: 1})

	sink := &recordingSink{Store: &state.Store{}}
	s := newSyncer(t, backend, sink)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	snap := sink.Snapshot()
	if !snap.HasData || len(snap.Devices) != 1 || len(snap.Schedules) != 1 {
		t.Fatalf("snapshot = %#v, want one device and one schedule", snap)
	}
	if len(snap.Logs) != DefaultLogLimit {
		t.Fatalf("logs = %d, want %d", len(snap.Logs), DefaultLogLimit)
	}
	if snap.Stats.TotalDevices != 1 {
		t.Fatalf("stats = %#v", snap.Stats)
	}
	if snap.Loading {
		t.Fatalf("loading still set after fetch")
	}
	if len(sink.loading) != 2 || !sink.loading[0] || sink.loading[1] {
		t.Fatalf("loading transitions = %v, want [true false]", sink.loading)
	}
}

func TestFetchAll_FailureKeepsStateAndRaisesBanner(t *testing.T) {
	backend := relaytest.New(t, []relay.Device{{ID: "A", Name: "Lamp"}}, nil)
	sink := &recordingSink{Store: &state.Store{}}
	s := newSyncer(t, backend, sink)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("initial FetchAll returned error: %v", err)
	}
	before := sink.Snapshot()

	backend.FailNext("GET /api/stats", 1)
	sink.loading = nil
	err := s.FetchAll(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchAll error = %v, want *FetchError", err)
	}
	var apiErr *relay.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("FetchAll error = %v, want wrapped 500 APIError", err)
	}

	after := sink.Snapshot()
	if len(after.Devices) != 1 || after.Devices[0].Name != "Lamp" || after.LastFetched != before.LastFetched {
		t.Fatalf("store changed after failed fetch: %#v", after)
	}
	if after.Error != FetchFailedMessage {
		t.Fatalf("banner = %q, want %q", after.Error, FetchFailedMessage)
	}
	if sink.replaced != 1 {
		t.Fatalf("ReplaceAll calls = %d, want 1", sink.replaced)
	}
	if len(sink.loading) != 2 || sink.loading[1] {
		t.Fatalf("loading transitions = %v, want cleared exactly once", sink.loading)
	}
}

func TestFetchAll_ClosedStoreIgnoresLateResult(t *testing.T) {
	backend := relaytest.New(t, []relay.Device{{ID: "A", Name: "Lamp"}}, nil)
	store := &state.Store{}
	store.Close()
	s := newSyncer(t, backend, store)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if store.Snapshot().HasData {
		t.Fatalf("closed store accepted fetch result")
	}
}

func TestAddDevice_RefetchesOnceAndStoresNewDevice(t *testing.T) {
	backend := relaytest.New(t, nil, nil)
	store := &state.Store{}
	s := newSyncer(t, backend, store)

	err := s.AddDevice(context.Background(), relay.NewDevice{Name: "Lamp", Room: "Living", GPIOPin: 17})
	if err != nil {
		t.Fatalf("AddDevice returned error: %v", err)
	}
	if got := backend.Hits("POST /api/devices"); got != 1 {
		t.Fatalf("POST /api/devices hits = %d, want 1", got)
	}
	if got := backend.Hits("GET /api/devices"); got != 1 {
		t.Fatalf("GET /api/devices hits = %d, want exactly one refetch", got)
	}
	snap := store.Snapshot()
	if len(snap.Devices) != 1 || snap.Devices[0].Name != "Lamp" || snap.Devices[0].Room != "Living" {
		t.Fatalf("devices = %#v, want the new Lamp", snap.Devices)
	}
}

func TestMutations_FailureSkipsRefetch(t *testing.T) {
	backend := relaytest.New(t, []relay.Device{{ID: "A", Name: "Lamp"}}, nil)
	store := &state.Store{}
	s := newSyncer(t, backend, store)

	err := s.DeleteSchedule(context.Background(), "missing")
	if !errors.Is(err, relay.ErrNotFound) {
		t.Fatalf("DeleteSchedule error = %v, want ErrNotFound", err)
	}
	if got := backend.Hits("GET /api/devices"); got != 0 {
		t.Fatalf("refetch issued after failed mutation: %d", got)
	}
}

func TestMutations_RefetchAfterEachSuccess(t *testing.T) {
	backend := relaytest.New(t,
		[]relay.Device{{ID: "A", Name: "Lamp"}},
		[]relay.Schedule{{ID: "s1", DeviceID: "A", Name: "Morning", ScheduleType: relay.ScheduleDaily, TargetState: relay.RelayOn, TriggerTime: "07:00", IsActive: true}},
	)
	store := &state.Store{}
	s := newSyncer(t, backend, store)
	ctx := context.Background()

	name := "Desk Lamp"
	steps := []struct {
		name string
		run  func() error
	}{
		{"update device", func() error { return s.UpdateDevice(ctx, "A", relay.DeviceUpdate{Name: &name}) }},
		{"add schedule", func() error {
			return s.AddSchedule(ctx, relay.NewSchedule{DeviceID: "A", Name: "Night", ScheduleType: relay.ScheduleWeekly, TargetState: relay.RelayOff, TriggerTime: "23:00", DaysOfWeek: []int{0, 4}})
		}},
		{"toggle schedule", func() error { return s.ToggleSchedule(ctx, "s1") }},
		{"update schedule", func() error {
			return s.UpdateSchedule(ctx, "s1", relay.NewSchedule{DeviceID: "A", Name: "Early", ScheduleType: relay.ScheduleDaily, TargetState: relay.RelayOn, TriggerTime: "06:30"})
		}},
	}
	for i, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s returned error: %v", step.name, err)
		}
		if got := backend.Hits("GET /api/schedules"); got != i+1 {
			t.Fatalf("after %s schedule fetches = %d, want %d", step.name, got, i+1)
		}
	}

	snap := store.Snapshot()
	if d, _ := snap.Device("A"); d.Name != "Desk Lamp" {
		t.Fatalf("device name = %q, want Desk Lamp", d.Name)
	}
	if len(snap.Schedules) != 2 {
		t.Fatalf("schedules = %#v, want 2", snap.Schedules)
	}
	for _, sc := range snap.Schedules {
		if sc.ID == "s1" && (sc.IsActive || sc.Name != "Early") {
			t.Fatalf("s1 = %#v, want toggled off and renamed", sc)
		}
	}

	if err := s.DeleteDevice(ctx, "A"); err != nil {
		t.Fatalf("DeleteDevice returned error: %v", err)
	}
	snap = store.Snapshot()
	if len(snap.Devices) != 0 || len(snap.Schedules) != 0 {
		t.Fatalf("after delete devices=%d schedules=%d, want 0/0", len(snap.Devices), len(snap.Schedules))
	}
}

func TestControlDevice_DoesNotRefetch(t *testing.T) {
	backend := relaytest.New(t, []relay.Device{{ID: "A", Name: "Lamp", RelayState: relay.RelayOff}}, nil)
	store := &state.Store{}
	s := newSyncer(t, backend, store)

	if err := s.ControlDevice(context.Background(), "A", relay.RelayOn); err != nil {
		t.Fatalf("ControlDevice returned error: %v", err)
	}
	if got := backend.Hits("POST /api/devices/control"); got != 1 {
		t.Fatalf("control hits = %d, want 1", got)
	}
	if got := backend.Hits("GET /api/devices"); got != 0 {
		t.Fatalf("ControlDevice refetched devices %d times", got)
	}
}
