// Package realtime maintains the websocket push channel to the relay backend.
//
// The channel moves through Disconnected → Connecting → Connected and back to
// Disconnected on any close or transport error. Each return to Disconnected
// schedules one reconnect after ReconnectPolicy.NextDelay; the default
// FixedDelay reproduces the backend client's flat three-second retry with no
// cap. Connection state is mirrored into the Sink with SetConnected.
//
// Frames are decoded with relay.DecodeMessage and applied in arrival order:
// device_update goes to MergeDeviceDelta, status_update to MergeStatusDeltas.
// Unknown types and malformed frames are logged and dropped without closing
// the connection. The channel never writes to the socket.
package realtime
