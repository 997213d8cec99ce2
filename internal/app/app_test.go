package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/relaydash/internal/config"
	"github.com/five82/relaydash/internal/realtime"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/relay/relaytest"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig(backendURL string) config.Config {
	cfg := config.Default()
	cfg.BackendURL = backendURL
	cfg.LogLevel = "debug"
	cfg.ReconnectDelay = 50 * time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func seededBackend(t *testing.T) *relaytest.Backend {
	return relaytest.New(t,
		[]relay.Device{{ID: "A", Name: "Lamp", Room: "Living", GPIOPin: 17, Status: relay.StatusOnline, RelayState: relay.RelayOff}},
		[]relay.Schedule{{ID: "s1", DeviceID: "A", Name: "Evening", ScheduleType: relay.ScheduleDaily, TargetState: relay.RelayOn, TriggerTime: "19:00", DaysOfWeek: []int{}, IsActive: true}},
	)
}

func TestNewCoreRejectsBadBackend(t *testing.T) {
	cfg := testConfig("ftp://example.com")
	if _, err := NewCore(cfg, CoreOptions{LogOutput: &lockedBuffer{}}); err == nil {
		t.Fatalf("NewCore accepted an ftp backend")
	}
}

func TestCoreControlRoundTripThroughPushChannel(t *testing.T) {
	backend := seededBackend(t)
	core, err := NewCore(testConfig(backend.URL()), CoreOptions{LogOutput: &lockedBuffer{}})
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })

	ch, err := core.NewChannel(nil)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	wait := core.StartChannel(ctx, ch)
	t.Cleanup(func() {
		cancel()
		wait()
	})

	if err := core.Syncer.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	waitFor(t, "push channel", func() bool { return ch.State() == realtime.Connected && backend.Subscribers() == 1 })

	if err := core.Gateway.ControlDevice(ctx, "A", relay.RelayOn); err != nil {
		t.Fatalf("ControlDevice: %v", err)
	}
	waitFor(t, "relay echo", func() bool {
		d, ok := core.Store.Snapshot().Device("A")
		return ok && d.RelayState == relay.RelayOn
	})
	if got := backend.Hits("GET /api/devices"); got != 1 {
		t.Fatalf("control triggered %d device fetches, want 1 (initial only)", got)
	}
}

func TestWatchLogsChanges(t *testing.T) {
	backend := seededBackend(t)
	logs := &lockedBuffer{}
	core, err := NewCore(testConfig(backend.URL()), CoreOptions{LogOutput: logs})
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, core, WatchOptions{Interval: 20 * time.Millisecond}) }()

	waitFor(t, "initial sync", func() bool { return strings.Contains(logs.String(), "initial sync complete") })
	waitFor(t, "subscriber", func() bool { return backend.Subscribers() == 1 })

	backend.Push(`{"type":"device_update","device_id":"A","data":{"status":"offline"}}`)
	waitFor(t, "status change log", func() bool { return strings.Contains(logs.String(), "device status changed") })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not stop after cancel")
	}
}
