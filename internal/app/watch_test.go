package app

import (
	"testing"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

func messages(changes []change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.message
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiffSnapshots(t *testing.T) {
	base := state.Snapshot{
		HasData:   true,
		Connected: true,
		Devices: []relay.Device{
			{ID: "A", Name: "Lamp", Status: relay.StatusOnline, RelayState: relay.RelayOff},
			{ID: "B", Name: "Fan", Status: relay.StatusOnline, RelayState: relay.RelayOff},
		},
		Schedules: []relay.Schedule{
			{ID: "s1", DeviceID: "A", Name: "Evening", TriggerTime: "19:00", IsActive: true},
		},
	}

	tests := []struct {
		name string
		prev state.Snapshot
		next func(state.Snapshot) state.Snapshot
		want []string
	}{
		{
			name: "nothing changed",
			prev: base,
			next: func(s state.Snapshot) state.Snapshot { return s },
			want: nil,
		},
		{
			name: "first data",
			prev: state.Snapshot{Connected: true},
			next: func(s state.Snapshot) state.Snapshot { return s },
			want: []string{"initial sync complete"},
		},
		{
			name: "disconnect and banner",
			prev: base,
			next: func(s state.Snapshot) state.Snapshot {
				s.Connected = false
				s.Error = "Failed to fetch data"
				return s
			},
			want: []string{"push channel disconnected", "error banner raised"},
		},
		{
			name: "relay and status",
			prev: base,
			next: func(s state.Snapshot) state.Snapshot {
				s.Devices = []relay.Device{
					{ID: "A", Name: "Lamp", Status: relay.StatusOnline, RelayState: relay.RelayOn},
					{ID: "B", Name: "Fan", Status: relay.StatusOffline, RelayState: relay.RelayOff},
				}
				return s
			},
			want: []string{"relay switched", "device status changed"},
		},
		{
			name: "device removed cascades schedule",
			prev: base,
			next: func(s state.Snapshot) state.Snapshot {
				s.Devices = []relay.Device{base.Devices[1]}
				s.Schedules = nil
				return s
			},
			want: []string{"device removed", "schedule removed"},
		},
		{
			name: "schedule toggled and added",
			prev: base,
			next: func(s state.Snapshot) state.Snapshot {
				s.Schedules = []relay.Schedule{
					{ID: "s1", DeviceID: "A", Name: "Evening", TriggerTime: "19:00", IsActive: false},
					{ID: "s2", DeviceID: "B", Name: "Morning", TriggerTime: "07:00", IsActive: true},
				}
				return s
			},
			want: []string{"schedule toggled", "schedule added"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(diffSnapshots(tt.prev, tt.next(base)))
			if !equalStrings(got, tt.want) {
				t.Fatalf("diffSnapshots = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffSnapshotsRemovedScheduleNamesDevice(t *testing.T) {
	prev := state.Snapshot{
		HasData:   true,
		Devices:   []relay.Device{{ID: "A", Name: "Lamp"}},
		Schedules: []relay.Schedule{{ID: "s1", DeviceID: "A", Name: "Evening"}},
	}
	next := state.Snapshot{HasData: true, Devices: prev.Devices}

	changes := diffSchedules(prev, next)
	if len(changes) != 1 || changes[0].fields["device"] != "Lamp" {
		t.Fatalf("changes = %+v", changes)
	}
}
