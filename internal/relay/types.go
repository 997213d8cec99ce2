package relay

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// naiveTimestampLayout matches the zone-less ISO timestamps the backend emits.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

// UnknownDeviceName is displayed for references that do not resolve.
const UnknownDeviceName = "Unknown Device"

// DeviceStatus is the connectivity state reported for a device.
type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
	StatusError   DeviceStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s DeviceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusError:
		return true
	}
	return false
}

// RelayState is the switched state of a relay.
type RelayState string

const (
	RelayOn  RelayState = "on"
	RelayOff RelayState = "off"
)

// Valid reports whether s is on or off.
func (s RelayState) Valid() bool {
	return s == RelayOn || s == RelayOff
}

// Toggled returns the opposite state.
func (s RelayState) Toggled() RelayState {
	if s == RelayOn {
		return RelayOff
	}
	return RelayOn
}

// ParseRelayState accepts on/off in any case.
func ParseRelayState(value string) (RelayState, error) {
	state := RelayState(strings.ToLower(strings.TrimSpace(value)))
	if !state.Valid() {
		return "", fmt.Errorf("invalid relay state %q (want on or off)", value)
	}
	return state, nil
}

// DeviceType classifies the hardware behind a device.
type DeviceType string

const (
	TypeRelay  DeviceType = "relay"
	TypeSwitch DeviceType = "switch"
	TypeSensor DeviceType = "sensor"
)

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	switch t {
	case TypeRelay, TypeSwitch, TypeSensor:
		return true
	}
	return false
}

// ScheduleType selects how a schedule repeats.
type ScheduleType string

const (
	ScheduleDaily  ScheduleType = "daily"
	ScheduleWeekly ScheduleType = "weekly"
	ScheduleOnce   ScheduleType = "once"
)

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleDaily, ScheduleWeekly, ScheduleOnce:
		return true
	}
	return false
}

// Device mirrors an entry of /api/devices.
type Device struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	DeviceType   DeviceType   `json:"device_type,omitempty"`
	Room         string       `json:"room"`
	GPIOPin      int          `json:"gpio_pin"`
	Status       DeviceStatus `json:"status"`
	RelayState   RelayState   `json:"relay_state"`
	Uptime       int64        `json:"uptime"`
	WiFiSignal   int          `json:"wifi_signal"`
	LastSeen     string       `json:"last_seen"`
	TotalRuntime int64        `json:"total_runtime"`
	IPAddress    string       `json:"ip_address,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

// ParsedLastSeen returns LastSeen as time.Time, zero when unparseable.
func (d Device) ParsedLastSeen() time.Time {
	return parseTime(d.LastSeen)
}

// UptimeDuration returns the uptime as a duration.
func (d Device) UptimeDuration() time.Duration {
	return time.Duration(d.Uptime) * time.Second
}

// RuntimeHours returns the cumulative on-time in hours.
func (d Device) RuntimeHours() float64 {
	return float64(d.TotalRuntime) / 3600
}

// Schedule mirrors an entry of /api/schedules.
type Schedule struct {
	ID           string       `json:"id"`
	DeviceID     string       `json:"device_id"`
	Name         string       `json:"name"`
	ScheduleType ScheduleType `json:"schedule_type"`
	TargetState  RelayState   `json:"target_state"`
	TriggerTime  string       `json:"trigger_time"`
	TriggerDate  string       `json:"trigger_date,omitempty"`
	DaysOfWeek   []int        `json:"days_of_week"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DaysLabel renders the weekday set, e.g. "Mon,Wed,Fri". Days only matter for
// weekly schedules; other types return an empty string.
func (s Schedule) DaysLabel() string {
	if s.ScheduleType != ScheduleWeekly || len(s.DaysOfWeek) == 0 {
		return ""
	}
	days := slices.Clone(s.DaysOfWeek)
	slices.Sort(days)
	days = slices.Compact(days)
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, ",")
}

// LogEntry mirrors an entry of /api/logs. Entries are immutable.
type LogEntry struct {
	ID          string `json:"id"`
	DeviceID    string `json:"device_id"`
	Action      string `json:"action"`
	OldState    string `json:"old_state,omitempty"`
	NewState    string `json:"new_state,omitempty"`
	TriggeredBy string `json:"triggered_by"`
	Timestamp   string `json:"timestamp"`
}

// ParsedTimestamp returns Timestamp as time.Time, zero when unparseable.
func (l LogEntry) ParsedTimestamp() time.Time {
	return parseTime(l.Timestamp)
}

// Transition renders the state change, e.g. "off → on".
func (l LogEntry) Transition() string {
	switch {
	case l.OldState != "" && l.NewState != "":
		return l.OldState + " → " + l.NewState
	case l.NewState != "":
		return "→ " + l.NewState
	default:
		return ""
	}
}

// Stats mirrors /api/stats. It is always replaced as a whole.
type Stats struct {
	TotalDevices      int     `json:"total_devices"`
	OnlineDevices     int     `json:"online_devices"`
	OfflineDevices    int     `json:"offline_devices"`
	TotalSchedules    int     `json:"total_schedules"`
	ActiveSchedules   int     `json:"active_schedules"`
	TotalRuntimeHours float64 `json:"total_runtime_hours"`
	SystemUptime      string  `json:"system_uptime"`
}

// Info mirrors the /api/ banner.
type Info struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// NewDevice is the body of POST /api/devices.
type NewDevice struct {
	Name       string     `json:"name"`
	Room       string     `json:"room"`
	GPIOPin    int        `json:"gpio_pin"`
	DeviceType DeviceType `json:"device_type,omitempty"`
}

// Validate checks the fields the backend requires.
func (n NewDevice) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("device name is required")
	}
	if strings.TrimSpace(n.Room) == "" {
		return fmt.Errorf("device room is required")
	}
	if n.GPIOPin < 0 {
		return fmt.Errorf("gpio pin %d out of range", n.GPIOPin)
	}
	if n.DeviceType != "" && !n.DeviceType.Valid() {
		return fmt.Errorf("invalid device type %q", n.DeviceType)
	}
	return nil
}

// DeviceUpdate is the body of PUT /api/devices/{id}. Nil fields are left alone.
type DeviceUpdate struct {
	Name    *string `json:"name,omitempty"`
	Room    *string `json:"room,omitempty"`
	GPIOPin *int    `json:"gpio_pin,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u DeviceUpdate) Empty() bool {
	return u.Name == nil && u.Room == nil && u.GPIOPin == nil
}

// Control is the body of POST /api/devices/control.
type Control struct {
	DeviceID string     `json:"device_id"`
	State    RelayState `json:"state"`
}

// NewSchedule is the body of POST /api/schedules and PUT /api/schedules/{id}.
type NewSchedule struct {
	DeviceID     string       `json:"device_id"`
	Name         string       `json:"name"`
	ScheduleType ScheduleType `json:"schedule_type"`
	TargetState  RelayState   `json:"target_state"`
	TriggerTime  string       `json:"trigger_time"`
	TriggerDate  string       `json:"trigger_date,omitempty"`
	DaysOfWeek   []int        `json:"days_of_week"`
}

// Validate checks enum values, the HH:MM trigger time and the weekday set.
func (n NewSchedule) Validate() error {
	if strings.TrimSpace(n.DeviceID) == "" {
		return fmt.Errorf("schedule device is required")
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("schedule name is required")
	}
	if !n.ScheduleType.Valid() {
		return fmt.Errorf("invalid schedule type %q", n.ScheduleType)
	}
	if !n.TargetState.Valid() {
		return fmt.Errorf("invalid target state %q", n.TargetState)
	}
	if err := ValidateTriggerTime(n.TriggerTime); err != nil {
		return err
	}
	for _, d := range n.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("day of week %d out of range 0-6", d)
		}
	}
	if n.ScheduleType == ScheduleWeekly && len(n.DaysOfWeek) == 0 {
		return fmt.Errorf("weekly schedule needs at least one day")
	}
	return nil
}

// ValidateTriggerTime checks an HH:MM value.
func ValidateTriggerTime(value string) error {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return fmt.Errorf("trigger time %q must be HH:MM", value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("trigger time %q has invalid hour", value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return fmt.Errorf("trigger time %q has invalid minute", value)
	}
	return nil
}

// ParseDays parses "0,2,4" or "mon,wed,fri" into weekday indices (0=Monday).
func ParseDays(value string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 0 || n > 6 {
				return nil, fmt.Errorf("day %d out of range 0-6", n)
			}
			days = append(days, n)
			continue
		}
		idx := slices.IndexFunc(weekdayNames[:], func(name string) bool {
			return strings.HasPrefix(part, strings.ToLower(name))
		})
		if idx < 0 {
			return nil, fmt.Errorf("unknown day %q", part)
		}
		days = append(days, idx)
	}
	slices.Sort(days)
	return slices.Compact(days), nil
}

// ParseTriggerDate turns a YYYY-MM-DD date into the naive midnight timestamp
// one-time schedules carry.
func ParseTriggerDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return "", fmt.Errorf("trigger date %q must be YYYY-MM-DD", value)
	}
	return d.Format("2006-01-02T15:04:05"), nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(naiveTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
