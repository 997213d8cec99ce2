package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Push message type tags.
const (
	TypeDeviceUpdate = "device_update"
	TypeStatusUpdate = "status_update"
)

// Message is a decoded push frame. The concrete type is one of
// DeviceUpdateMessage, StatusUpdateMessage or UnknownMessage.
type Message interface {
	MessageType() string
}

// DeviceUpdateMessage carries a partial update for one device.
type DeviceUpdateMessage struct {
	DeviceID string
	Data     DeviceDelta
}

// MessageType implements Message.
func (DeviceUpdateMessage) MessageType() string { return TypeDeviceUpdate }

// StatusUpdateMessage carries partial updates for a set of devices.
// Entries that failed to decode or validate are reported in Skipped and
// left out of Devices.
type StatusUpdateMessage struct {
	Devices []StatusEntry
	Skipped []error
}

// MessageType implements Message.
func (StatusUpdateMessage) MessageType() string { return TypeStatusUpdate }

// UnknownMessage is any well-formed frame with an unrecognized type.
type UnknownMessage struct {
	Type string
}

// MessageType implements Message.
func (m UnknownMessage) MessageType() string { return m.Type }

// ErrMalformedMessage wraps every decode failure.
var ErrMalformedMessage = errors.New("malformed push message")

type envelope struct {
	Type     string          `json:"type"`
	DeviceID string          `json:"device_id"`
	Data     json.RawMessage `json:"data"`
	Devices  json.RawMessage `json:"devices"`
}

// DecodeMessage parses a push frame into its typed variant.
func DecodeMessage(payload []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case TypeDeviceUpdate:
		if env.DeviceID == "" {
			return nil, fmt.Errorf("%w: device_update without device_id", ErrMalformedMessage)
		}
		var delta DeviceDelta
		if len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &delta); err != nil {
				return nil, fmt.Errorf("%w: device_update data: %v", ErrMalformedMessage, err)
			}
		}
		if err := delta.Validate(); err != nil {
			return nil, fmt.Errorf("%w: device %s: %v", ErrMalformedMessage, env.DeviceID, err)
		}
		return DeviceUpdateMessage{DeviceID: env.DeviceID, Data: delta}, nil

	case TypeStatusUpdate:
		var raw []json.RawMessage
		if len(env.Devices) > 0 && string(env.Devices) != "null" {
			if err := json.Unmarshal(env.Devices, &raw); err != nil {
				return nil, fmt.Errorf("%w: status_update devices: %v", ErrMalformedMessage, err)
			}
		}
		msg := StatusUpdateMessage{Devices: make([]StatusEntry, 0, len(raw))}
		for i, item := range raw {
			entry, err := decodeStatusEntry(item)
			if err != nil {
				msg.Skipped = append(msg.Skipped, fmt.Errorf("entry %d: %w", i, err))
				continue
			}
			msg.Devices = append(msg.Devices, entry)
		}
		return msg, nil

	default:
		return UnknownMessage{Type: env.Type}, nil
	}
}

func decodeStatusEntry(raw json.RawMessage) (StatusEntry, error) {
	var entry StatusEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return StatusEntry{}, err
	}
	if entry.ID == "" {
		return StatusEntry{}, errors.New("missing id")
	}
	if err := entry.Validate(); err != nil {
		return StatusEntry{}, fmt.Errorf("device %s: %w", entry.ID, err)
	}
	return entry, nil
}
