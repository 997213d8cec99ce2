package ui

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "now"},
		{5 * time.Second, "5s"},
		{12 * time.Minute, "12m"},
		{2*time.Hour + 3*time.Minute, "2h 3m"},
		{2 * time.Hour, "2h"},
		{3*24*time.Hour + 4*time.Hour, "3d 4h"},
		{48 * time.Hour, "2d"},
	}
	for _, tc := range cases {
		if got := humanizeDuration(tc.in); got != tc.want {
			t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := relativeTime(time.Time{}, now); got != "never" {
		t.Fatalf("relativeTime(zero) = %q, want never", got)
	}
	if got := relativeTime(now, now); got != "just now" {
		t.Fatalf("relativeTime(now) = %q, want just now", got)
	}
	if got := relativeTime(now.Add(-90*time.Second), now); got != "1m ago" {
		t.Fatalf("relativeTime(-90s) = %q, want 1m ago", got)
	}
}

func TestSignalBars(t *testing.T) {
	cases := map[int]string{
		0:   "----",
		-50: "▮▮▮▮",
		-60: "▮▮▮▯",
		-70: "▮▮▯▯",
		-80: "▮▯▯▯",
		-95: "▯▯▯▯",
	}
	for rssi, want := range cases {
		if got := signalBars(rssi); got != want {
			t.Fatalf("signalBars(%d) = %q, want %q", rssi, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short  ", 10); got != "short" {
		t.Fatalf("truncate = %q, want short", got)
	}
	if got := truncate("Living room lamp", 10); got != "Living ..." {
		t.Fatalf("truncate = %q, want %q", got, "Living ...")
	}
	if got := truncateMiddle("/var/log/relaydash/relaydash.log", 11); got != "/var/…h.log" {
		t.Fatalf("truncateMiddle = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
}
