// Package relay defines the wire types of the relay backend and an HTTP
// client for its REST API.
//
// # Overview
//
// The backend owns device control, schedule evaluation and persistence. This
// package mirrors its payloads (Device, Schedule, LogEntry, Stats), the
// request bodies for CRUD and control calls, and the two push message
// variants delivered over the websocket channel.
//
// # Files
//
//   - types.go: records, enums, request bodies and their validation
//   - delta.go: DeviceDelta, the partial device update used by push frames
//   - message.go: DecodeMessage and the Message union
//   - client.go: REST client and URL derivation
//   - errors.go: APIError and ErrNotFound
//
// # Push Messages
//
// Frames are JSON objects keyed by "type":
//
//	{"type": "device_update", "device_id": "a1", "data": {"relay_state": "on"}}
//	{"type": "status_update", "devices": [{"id": "a1", "status": "offline"}]}
//
// DecodeMessage returns DeviceUpdateMessage, StatusUpdateMessage or UnknownMessage. Any
// frame that is not valid JSON, or a device_update that carries an enum value
// outside its allowed set, yields an error wrapping ErrMalformedMessage. A bad
// entry inside a status_update is dropped into Skipped and the rest of the
// frame still applies. Fields of other frame types are only decoded for the
// type that owns them. Callers switch on the concrete type; unknown tags fall
// into their own branch.
//
// # Partial Updates
//
// DeviceDelta uses pointer fields so that an absent field is distinguishable
// from a zero value. ApplyTo copies only carried fields, which keeps the
// merge last-write-wins per field.
//
// # Timestamps
//
// The backend emits ISO-8601 timestamps without a zone. They stay strings on
// the wire types; Parsed* helpers accept RFC3339Nano, RFC3339 and the naive
// form (read as UTC), returning the zero time when nothing matches.
//
// # URLs
//
// A single backend root is configured. The REST base is root + "/api"; the
// push channel is root + "/ws" with http swapped for ws and https for wss.
//
//	relay.NewClient("192.168.1.20:8001")   // http://192.168.1.20:8001/api/...
//	relay.WebSocketURL("https://home.lan") // wss://home.lan/ws
//	relay.WebSocketURL("https://home.lan/smarthome/") // wss://home.lan/smarthome/ws
//
// # Errors
//
// Non-2xx responses become *APIError carrying the FastAPI "detail" text and
// the X-Request-ID sent with the request. errors.Is(err, ErrNotFound)
// matches 404s. Transport and decode failures are wrapped with fmt.Errorf.
//
// The client holds no state beyond its base URL and http.Client and is safe
// for concurrent use. It does not retry; retry policy belongs to callers.
package relay
