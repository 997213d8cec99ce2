package state

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/five82/relaydash/internal/relay"
)

// Snapshot represents the latest synchronized model available to readers.
type Snapshot struct {
	Devices   []relay.Device
	Schedules []relay.Schedule
	Logs      []relay.LogEntry
	Stats     relay.Stats
	HasData   bool // true once a bulk fetch has succeeded

	Connected bool
	Loading   bool
	Error     string // user-visible banner; empty when clear

	LastFetched time.Time
	LastPush    time.Time
	Version     uint64 // bumped on every applied change
}

// Device returns the device with the given id.
func (s Snapshot) Device(id string) (relay.Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return relay.Device{}, false
}

// DeviceName resolves a device reference for display. Dangling references
// resolve to relay.UnknownDeviceName.
func (s Snapshot) DeviceName(id string) string {
	if d, ok := s.Device(id); ok {
		return d.Name
	}
	return relay.UnknownDeviceName
}

// FindDevice resolves a device id or a unique, case-insensitive name.
func (s Snapshot) FindDevice(ref string) (relay.Device, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return relay.Device{}, fmt.Errorf("device is required")
	}
	if d, ok := s.Device(ref); ok {
		return d, nil
	}
	var (
		match relay.Device
		found bool
	)
	for _, d := range s.Devices {
		if !strings.EqualFold(d.Name, ref) {
			continue
		}
		if found {
			return relay.Device{}, fmt.Errorf("more than one device is named %q; use its id", ref)
		}
		match, found = d, true
	}
	if !found {
		return relay.Device{}, fmt.Errorf("no device named %q", ref)
	}
	return match, nil
}

// Store holds the single authoritative snapshot. All mutation goes through
// ReplaceAll or the merge methods. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	closed   bool
}

// ReplaceAll swaps in a full bulk-fetch result. It reports false when the
// store has been closed.
func (s *Store) ReplaceAll(devices []relay.Device, schedules []relay.Schedule, logs []relay.LogEntry, stats relay.Stats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.snapshot.Devices = slices.Clone(devices)
	s.snapshot.Schedules = cloneSchedules(schedules)
	s.snapshot.Logs = slices.Clone(logs)
	s.snapshot.Stats = stats
	s.snapshot.HasData = true
	s.snapshot.LastFetched = time.Now()
	s.snapshot.Version++
	return true
}

// MergeDeviceDelta overwrites the carried fields of the device with the given
// id. Unknown ids are ignored; the device appears with the next bulk fetch.
func (s *Store) MergeDeviceDelta(id string, delta relay.DeviceDelta) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	applied := s.mergeLocked(id, delta)
	if applied {
		s.snapshot.LastPush = time.Now()
		s.snapshot.Version++
	}
	return applied
}

// MergeStatusDeltas merges each entry by id and returns how many matched.
// Devices absent from entries are left untouched.
func (s *Store) MergeStatusDeltas(entries []relay.StatusEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	applied := 0
	for _, entry := range entries {
		if s.mergeLocked(entry.ID, entry.DeviceDelta) {
			applied++
		}
	}
	if applied > 0 {
		s.snapshot.LastPush = time.Now()
		s.snapshot.Version++
	}
	return applied
}

func (s *Store) mergeLocked(id string, delta relay.DeviceDelta) bool {
	idx := slices.IndexFunc(s.snapshot.Devices, func(d relay.Device) bool { return d.ID == id })
	if idx < 0 {
		return false
	}
	s.snapshot.Devices[idx] = delta.ApplyTo(s.snapshot.Devices[idx])
	return true
}

// SetConnected records the push channel's connection state.
func (s *Store) SetConnected(connected bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.Connected == connected {
			return false
		}
		snap.Connected = connected
		return true
	})
}

// SetLoading toggles the bulk-fetch loading indicator.
func (s *Store) SetLoading(loading bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.Loading == loading {
			return false
		}
		snap.Loading = loading
		return true
	})
}

// SetError surfaces a user-visible banner message.
func (s *Store) SetError(message string) {
	s.update(func(snap *Snapshot) bool {
		if snap.Error == message {
			return false
		}
		snap.Error = message
		return true
	})
}

// ClearError removes the banner.
func (s *Store) ClearError() {
	s.SetError("")
}

// Close tears the store down. Later mutations are ignored so that late
// responses cannot write into it; Snapshot keeps returning the last state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) update(fn func(*Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if fn(&s.snapshot) {
		s.snapshot.Version++
	}
}

// Snapshot returns a deep copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Devices = slices.Clone(s.snapshot.Devices)
	snap.Schedules = cloneSchedules(s.snapshot.Schedules)
	snap.Logs = slices.Clone(s.snapshot.Logs)
	return snap
}

func cloneSchedules(items []relay.Schedule) []relay.Schedule {
	if items == nil {
		return nil
	}
	dup := make([]relay.Schedule, len(items))
	for i, item := range items {
		item.DaysOfWeek = slices.Clone(item.DaysOfWeek)
		dup[i] = item
	}
	return dup
}
