package relay

import (
	"errors"
	"testing"
)

func TestDecodeMessage_DeviceUpdate(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"device_update","device_id":"a1","data":{"relay_state":"on","last_seen":"2025-01-01T10:00:00"}}`))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	update, ok := msg.(DeviceUpdateMessage)
	if !ok {
		t.Fatalf("DecodeMessage = %T, want DeviceUpdateMessage", msg)
	}
	if update.DeviceID != "a1" || update.Data.RelayState == nil || *update.Data.RelayState != RelayOn {
		t.Fatalf("update = %#v, want a1 relay_state=on", update)
	}
	if update.Data.Name != nil || update.Data.Status != nil {
		t.Fatalf("absent fields should stay nil: %#v", update.Data)
	}
}

func TestDecodeMessage_StatusUpdate(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"status_update","devices":[{"id":"a1","status":"offline","uptime":30},{"id":"b2","wifi_signal":71}]}`))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	update, ok := msg.(StatusUpdateMessage)
	if !ok {
		t.Fatalf("DecodeMessage = %T, want StatusUpdateMessage", msg)
	}
	if len(update.Devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(update.Devices))
	}
	first := update.Devices[0]
	if first.ID != "a1" || first.Status == nil || *first.Status != StatusOffline || first.Uptime == nil || *first.Uptime != 30 {
		t.Fatalf("first entry = %#v", first)
	}
	if update.Devices[1].WiFiSignal == nil || *update.Devices[1].WiFiSignal != 71 {
		t.Fatalf("second entry = %#v", update.Devices[1])
	}
}

func TestDecodeMessage_UnknownTypeIsNotAnError(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"firmware_available","version":"2.0"}`))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if u, ok := msg.(UnknownMessage); !ok || u.MessageType() != "firmware_available" {
		t.Fatalf("DecodeMessage = %#v, want UnknownMessage firmware_available", msg)
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	payloads := []string{
		`Echo: hello`,
		`{"type":"device_update","data":{"relay_state":"on"}}`,
		`{"type":"device_update","device_id":"a1","data":{"relay_state":"maybe"}}`,
		`{"type":"status_update","devices":{"id":"a1"}}`,
		`{"type":"device_update","device_id":"a1","data":{"uptime":"long"}}`,
	}
	for _, p := range payloads {
		_, err := DecodeMessage([]byte(p))
		if !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("DecodeMessage(%s) error = %v, want ErrMalformedMessage", p, err)
		}
	}
}

func TestDecodeMessage_StatusUpdateSkipsOnlyBadEntries(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"status_update","devices":[` +
		`{"id":"A","status":"offline"},` +
		`{"id":"B","status":"rebooting"},` +
		`{"status":"online"},` +
		`{"id":"C","uptime":"long"},` +
		`{"id":"D","relay_state":"on"}]}`))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	update, ok := msg.(StatusUpdateMessage)
	if !ok {
		t.Fatalf("DecodeMessage = %T, want StatusUpdateMessage", msg)
	}
	if len(update.Devices) != 2 || update.Devices[0].ID != "A" || update.Devices[1].ID != "D" {
		t.Fatalf("devices = %#v, want A and D", update.Devices)
	}
	if len(update.Skipped) != 3 {
		t.Fatalf("skipped = %v, want 3 entries", update.Skipped)
	}
}

func TestDecodeMessage_UnknownTypeIgnoresForeignFields(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"heartbeat","devices":3,"device_id":"x"}`))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if u, ok := msg.(UnknownMessage); !ok || u.Type != "heartbeat" {
		t.Fatalf("DecodeMessage = %#v, want UnknownMessage heartbeat", msg)
	}
}

func TestDeviceDeltaApplyTo_OnlyCarriedFields(t *testing.T) {
	on := RelayOn
	dev := Device{ID: "a1", Name: "Lamp", Room: "Den", GPIOPin: 4, Status: StatusOnline, RelayState: RelayOff, Uptime: 10, WiFiSignal: 80}
	got := DeviceDelta{RelayState: &on}.ApplyTo(dev)

	want := dev
	want.RelayState = RelayOn
	if got != want {
		t.Fatalf("ApplyTo = %#v, want %#v", got, want)
	}
	if !(DeviceDelta{}).Empty() || (DeviceDelta{RelayState: &on}).Empty() {
		t.Fatalf("Empty mismatch")
	}
}
