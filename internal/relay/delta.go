package relay

import "fmt"

// DeviceDelta carries a partial device update. Nil fields are absent from the
// update and leave the existing value untouched; a JSON null is treated the
// same as an absent field.
type DeviceDelta struct {
	Name         *string       `json:"name,omitempty"`
	DeviceType   *DeviceType   `json:"device_type,omitempty"`
	Room         *string       `json:"room,omitempty"`
	GPIOPin      *int          `json:"gpio_pin,omitempty"`
	Status       *DeviceStatus `json:"status,omitempty"`
	RelayState   *RelayState   `json:"relay_state,omitempty"`
	Uptime       *int64        `json:"uptime,omitempty"`
	WiFiSignal   *int          `json:"wifi_signal,omitempty"`
	LastSeen     *string       `json:"last_seen,omitempty"`
	TotalRuntime *int64        `json:"total_runtime,omitempty"`
	IPAddress    *string       `json:"ip_address,omitempty"`
}

// StatusEntry is one element of a status_update message.
type StatusEntry struct {
	ID string `json:"id"`
	DeviceDelta
}

// ApplyTo returns d with every carried field overwritten.
func (delta DeviceDelta) ApplyTo(d Device) Device {
	if delta.Name != nil {
		d.Name = *delta.Name
	}
	if delta.DeviceType != nil {
		d.DeviceType = *delta.DeviceType
	}
	if delta.Room != nil {
		d.Room = *delta.Room
	}
	if delta.GPIOPin != nil {
		d.GPIOPin = *delta.GPIOPin
	}
	if delta.Status != nil {
		d.Status = *delta.Status
	}
	if delta.RelayState != nil {
		d.RelayState = *delta.RelayState
	}
	if delta.Uptime != nil {
		d.Uptime = *delta.Uptime
	}
	if delta.WiFiSignal != nil {
		d.WiFiSignal = *delta.WiFiSignal
	}
	if delta.LastSeen != nil {
		d.LastSeen = *delta.LastSeen
	}
	if delta.TotalRuntime != nil {
		d.TotalRuntime = *delta.TotalRuntime
	}
	if delta.IPAddress != nil {
		d.IPAddress = *delta.IPAddress
	}
	return d
}

// Empty reports whether the delta carries no fields.
func (delta DeviceDelta) Empty() bool {
	return delta == DeviceDelta{}
}

// Validate rejects enum values outside their allowed sets.
func (delta DeviceDelta) Validate() error {
	if delta.Status != nil && !delta.Status.Valid() {
		return fmt.Errorf("invalid status %q", *delta.Status)
	}
	if delta.RelayState != nil && !delta.RelayState.Valid() {
		return fmt.Errorf("invalid relay_state %q", *delta.RelayState)
	}
	if delta.DeviceType != nil && !delta.DeviceType.Valid() {
		return fmt.Errorf("invalid device_type %q", *delta.DeviceType)
	}
	return nil
}
