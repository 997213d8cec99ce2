// Package relaytest provides an in-memory relay backend for tests.
package relaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/five82/relaydash/internal/relay"
)

// Backend serves /api/* from in-memory collections and pushes frames to
// /ws subscribers. Control requests are echoed as device_update frames.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	devices   []relay.Device
	schedules []relay.Schedule
	logs      []relay.LogEntry
	stats     relay.Stats
	hits      map[string]int
	failures  map[string]int
	subs      map[*websocket.Conn]struct{}
	upgrader  websocket.Upgrader
}

// New starts a backend seeded with the given devices and schedules. The
// server is closed when the test ends.
func New(t interface{ Cleanup(func()) }, devices []relay.Device, schedules []relay.Schedule) *Backend {
	b := &Backend{
		devices:   append([]relay.Device(nil), devices...),
		schedules: append([]relay.Schedule(nil), schedules...),
		hits:      map[string]int{},
		failures:  map[string]int{},
		subs:      map[*websocket.Conn]struct{}{},
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serveHTTP))
	t.Cleanup(func() {
		b.mu.Lock()
		for c := range b.subs {
			_ = c.Close()
		}
		b.mu.Unlock()
		b.Server.Close()
	})
	return b
}

// URL returns the backend root.
func (b *Backend) URL() string { return b.Server.URL }

// Hits returns how often "METHOD /api/path" was requested.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// FailNext makes the next n requests to route answer 500.
func (b *Backend) FailNext(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] += n
}

// SetStats replaces the aggregate served by /api/stats.
func (b *Backend) SetStats(stats relay.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = stats
}

// AddLog appends a log entry served by /api/logs.
func (b *Backend) AddLog(entry relay.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append(b.logs, entry)
}

// Subscribers reports the number of open /ws connections.
func (b *Backend) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Push sends a raw text frame to every subscriber.
func (b *Backend) Push(frame string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked([]byte(frame))
}

func (b *Backend) pushLocked(frame []byte) {
	for c := range b.subs {
		if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
			_ = c.Close()
			delete(b.subs, c)
		}
	}
}

func (b *Backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
		b.serveWS(w, r)
		return
	}
	route := r.Method + " " + r.URL.Path

	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[route]++
	if b.failures[route] > 0 {
		b.failures[route]--
		writeDetail(w, http.StatusInternalServerError, "injected failure")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case r.Method == http.MethodGet && path == "/devices":
		writeJSON(w, b.devices)
	case r.Method == http.MethodPost && path == "/devices":
		var in relay.NewDevice
		if !decode(w, r, &in) {
			return
		}
		d := relay.Device{
			ID:         uuid.NewString(),
			Name:       in.Name,
			Room:       in.Room,
			GPIOPin:    in.GPIOPin,
			DeviceType: in.DeviceType,
			Status:     relay.StatusOffline,
			RelayState: relay.RelayOff,
			LastSeen:   now(),
			CreatedAt:  now(),
		}
		if d.DeviceType == "" {
			d.DeviceType = relay.TypeRelay
		}
		b.devices = append(b.devices, d)
		writeJSON(w, d)
	case r.Method == http.MethodPost && path == "/devices/control":
		var in relay.Control
		if !decode(w, r, &in) {
			return
		}
		i := b.deviceIndex(in.DeviceID)
		if i < 0 {
			writeDetail(w, http.StatusNotFound, "Device not found")
			return
		}
		old := b.devices[i].RelayState
		b.devices[i].RelayState = in.State
		b.logs = append(b.logs, relay.LogEntry{
			ID: uuid.NewString(), DeviceID: in.DeviceID, Action: "relay_" + string(in.State),
			OldState: string(old), NewState: string(in.State), TriggeredBy: "manual", Timestamp: now(),
		})
		frame, _ := json.Marshal(map[string]any{
			"type":      "device_update",
			"device_id": in.DeviceID,
			"data":      map[string]any{"relay_state": in.State},
		})
		b.pushLocked(frame)
		writeJSON(w, map[string]string{"message": fmt.Sprintf("Device %s turned %s", in.DeviceID, in.State)})
	case strings.HasPrefix(path, "/devices/"):
		b.serveDevice(w, r, strings.TrimPrefix(path, "/devices/"))
	case r.Method == http.MethodGet && path == "/schedules":
		writeJSON(w, b.schedules)
	case r.Method == http.MethodPost && path == "/schedules":
		var in relay.NewSchedule
		if !decode(w, r, &in) {
			return
		}
		s := relay.Schedule{
			ID: uuid.NewString(), DeviceID: in.DeviceID, Name: in.Name, ScheduleType: in.ScheduleType,
			TargetState: in.TargetState, TriggerTime: in.TriggerTime, TriggerDate: in.TriggerDate,
			DaysOfWeek: in.DaysOfWeek, IsActive: true, CreatedAt: now(),
		}
		b.schedules = append(b.schedules, s)
		writeJSON(w, s)
	case strings.HasPrefix(path, "/schedules/"):
		b.serveSchedule(w, r, strings.TrimPrefix(path, "/schedules/"))
	case r.Method == http.MethodGet && path == "/logs":
		b.serveLogs(w, r)
	case r.Method == http.MethodGet && path == "/stats":
		writeJSON(w, b.stats)
	case r.Method == http.MethodGet && path == "/":
		writeJSON(w, relay.Info{Message: "Relay Control API", Version: "1.0.0"})
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (b *Backend) serveDevice(w http.ResponseWriter, r *http.Request, id string) {
	i := b.deviceIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Device not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, b.devices[i])
	case http.MethodPut:
		var in relay.DeviceUpdate
		if !decode(w, r, &in) {
			return
		}
		if in.Name != nil {
			b.devices[i].Name = *in.Name
		}
		if in.Room != nil {
			b.devices[i].Room = *in.Room
		}
		if in.GPIOPin != nil {
			b.devices[i].GPIOPin = *in.GPIOPin
		}
		writeJSON(w, b.devices[i])
	case http.MethodDelete:
		b.devices = append(b.devices[:i], b.devices[i+1:]...)
		kept := b.schedules[:0]
		for _, s := range b.schedules {
			if s.DeviceID != id {
				kept = append(kept, s)
			}
		}
		b.schedules = kept
		writeJSON(w, map[string]string{"message": "Device deleted successfully"})
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (b *Backend) serveSchedule(w http.ResponseWriter, r *http.Request, rest string) {
	if strings.HasPrefix(rest, "device/") && r.Method == http.MethodGet {
		deviceID := strings.TrimPrefix(rest, "device/")
		out := []relay.Schedule{}
		for _, s := range b.schedules {
			if s.DeviceID == deviceID {
				out = append(out, s)
			}
		}
		writeJSON(w, out)
		return
	}
	id, toggle := strings.CutSuffix(rest, "/toggle")
	i := b.scheduleIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Schedule not found")
		return
	}
	switch {
	case toggle && r.Method == http.MethodPut:
		b.schedules[i].IsActive = !b.schedules[i].IsActive
		writeJSON(w, map[string]string{"message": "Schedule toggled"})
	case r.Method == http.MethodPut:
		var in relay.NewSchedule
		if !decode(w, r, &in) {
			return
		}
		s := &b.schedules[i]
		s.DeviceID, s.Name, s.ScheduleType = in.DeviceID, in.Name, in.ScheduleType
		s.TargetState, s.TriggerTime, s.TriggerDate, s.DaysOfWeek = in.TargetState, in.TriggerTime, in.TriggerDate, in.DaysOfWeek
		writeJSON(w, *s)
	case r.Method == http.MethodDelete:
		b.schedules = append(b.schedules[:i], b.schedules[i+1:]...)
		writeJSON(w, map[string]string{"message": "Schedule deleted successfully"})
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (b *Backend) serveLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	deviceID := r.URL.Query().Get("device_id")
	out := []relay.LogEntry{}
	for i := len(b.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if deviceID == "" || b.logs[i].DeviceID == deviceID {
			out = append(out, b.logs[i])
		}
	}
	writeJSON(w, out)
}

func (b *Backend) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.subs[conn] = struct{}{}
	b.mu.Unlock()

	// Echo inbound text like the real backend does.
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		b.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("Echo: "+string(msg)))
		b.mu.Unlock()
	}
	b.mu.Lock()
	delete(b.subs, conn)
	b.mu.Unlock()
	_ = conn.Close()
}

func (b *Backend) deviceIndex(id string) int {
	for i, d := range b.devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) scheduleIndex(id string) int {
	for i, s := range b.schedules {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000")
}
