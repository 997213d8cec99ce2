package relay

import (
	"slices"
	"testing"
	"time"
)

func TestParseTimeLayouts(t *testing.T) {
	if !parseTime("").IsZero() {
		t.Fatalf("parseTime(\"\") should be zero")
	}
	if parseTime("2025-12-13T10:11:12Z").IsZero() {
		t.Fatalf("parseTime should parse RFC3339")
	}
	got := parseTime("2025-12-13T10:11:12.345678")
	if got.IsZero() {
		t.Fatalf("parseTime should parse naive isoformat")
	}
	if got.Location() != time.UTC || got.Hour() != 10 || got.Nanosecond() != 345678000 {
		t.Fatalf("parseTime = %v, want 10:11:12.345678 UTC", got)
	}
	if parseTime("2025-12-13T10:11:12").IsZero() {
		t.Fatalf("parseTime should parse naive isoformat without fraction")
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for garbage")
	}
}

func TestEnumValidity(t *testing.T) {
	if !StatusOnline.Valid() || !StatusError.Valid() || DeviceStatus("rebooting").Valid() {
		t.Fatalf("DeviceStatus.Valid mismatch")
	}
	if !RelayOn.Valid() || RelayState("ON").Valid() {
		t.Fatalf("RelayState.Valid mismatch")
	}
	if RelayOn.Toggled() != RelayOff || RelayOff.Toggled() != RelayOn {
		t.Fatalf("Toggled mismatch")
	}
	if s, err := ParseRelayState(" ON "); err != nil || s != RelayOn {
		t.Fatalf("ParseRelayState = %q, %v; want on", s, err)
	}
	if _, err := ParseRelayState("dim"); err == nil {
		t.Fatalf("ParseRelayState accepted dim")
	}
}

func TestNewScheduleValidate(t *testing.T) {
	base := NewSchedule{DeviceID: "a1", Name: "Morning", ScheduleType: ScheduleDaily, TargetState: RelayOn, TriggerTime: "07:30"}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate returned error for valid schedule: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*NewSchedule)
	}{
		{"missing device", func(s *NewSchedule) { s.DeviceID = "" }},
		{"missing name", func(s *NewSchedule) { s.Name = "  " }},
		{"bad type", func(s *NewSchedule) { s.ScheduleType = "hourly" }},
		{"bad target", func(s *NewSchedule) { s.TargetState = "toggle" }},
		{"bad time", func(s *NewSchedule) { s.TriggerTime = "7:30" }},
		{"hour out of range", func(s *NewSchedule) { s.TriggerTime = "24:00" }},
		{"minute out of range", func(s *NewSchedule) { s.TriggerTime = "10:60" }},
		{"day out of range", func(s *NewSchedule) { s.DaysOfWeek = []int{7} }},
		{"weekly without days", func(s *NewSchedule) { s.ScheduleType = ScheduleWeekly }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Fatalf("Validate returned nil error for %s", tt.name)
			}
		})
	}
}

func TestNewDeviceValidate(t *testing.T) {
	if err := (NewDevice{Name: "Lamp", Room: "Den", GPIOPin: 4}).Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if err := (NewDevice{Name: "Lamp"}).Validate(); err == nil {
		t.Fatalf("Validate accepted device without room")
	}
	if err := (NewDevice{Name: "Lamp", Room: "Den", DeviceType: "toaster"}).Validate(); err == nil {
		t.Fatalf("Validate accepted unknown device type")
	}
}

func TestParseDays(t *testing.T) {
	got, err := ParseDays("fri, mon,2,monday")
	if err != nil {
		t.Fatalf("ParseDays returned error: %v", err)
	}
	if !slices.Equal(got, []int{0, 2, 4}) {
		t.Fatalf("ParseDays = %v, want [0 2 4]", got)
	}
	if _, err := ParseDays("funday"); err == nil {
		t.Fatalf("ParseDays accepted funday")
	}
	if _, err := ParseDays("9"); err == nil {
		t.Fatalf("ParseDays accepted 9")
	}
}

func TestLogEntryTransition(t *testing.T) {
	if got := (LogEntry{OldState: "off", NewState: "on"}).Transition(); got != "off → on" {
		t.Fatalf("Transition = %q", got)
	}
	if got := (LogEntry{NewState: "on"}).Transition(); got != "→ on" {
		t.Fatalf("Transition = %q", got)
	}
	if got := (LogEntry{}).Transition(); got != "" {
		t.Fatalf("Transition = %q, want empty", got)
	}
}

func TestScheduleDaysLabel_OnlyWeekly(t *testing.T) {
	s := Schedule{ScheduleType: ScheduleDaily, DaysOfWeek: []int{1}}
	if s.DaysLabel() != "" {
		t.Fatalf("DaysLabel for daily = %q, want empty", s.DaysLabel())
	}
	s.ScheduleType = ScheduleWeekly
	s.DaysOfWeek = []int{6, 1, 1}
	if s.DaysLabel() != "Tue,Sun" {
		t.Fatalf("DaysLabel = %q, want Tue,Sun", s.DaysLabel())
	}
}

func TestParseTriggerDate(t *testing.T) {
	got, err := ParseTriggerDate(" 2026-03-01 ")
	if err != nil || got != "2026-03-01T00:00:00" {
		t.Fatalf("ParseTriggerDate = %q, %v", got, err)
	}
	for _, bad := range []string{"", "03/01/2026", "2026-13-01"} {
		if _, err := ParseTriggerDate(bad); err == nil {
			t.Fatalf("ParseTriggerDate(%q) succeeded, want error", bad)
		}
	}
}
