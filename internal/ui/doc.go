// Package ui provides the terminal dashboard for relaydash.
//
// The dashboard is a Bubble Tea program. It never touches the network or the
// store directly: it reads state.Store snapshots on a tick and sends every
// user action through a Gateway, which performs the request, refetches and
// sets the store's banner on failure.
//
// # Tabs
//
//   - Devices: relay table with live status, relay state and signal
//   - Schedules: daily, weekly and one-time triggers with their device
//   - Logs: the activity log as last fetched, newest first
//   - Diagnostics: the client's own log file, filtered by level
//
// # Intents
//
// Intents run as tea.Cmds bounded by IntentTimeout. Forms stay open while a
// request is in flight and close only on success; a failure leaves the form
// open with the error, and the banner line shows the store's message.
//
// # Key Bindings
//
//   - 1-4, tab: switch tabs
//   - o / f / space: turn the selected relay on, off, or toggle it
//   - a / e / d: add, edit or delete the selected device or schedule
//   - t: pause or resume the selected schedule
//   - r: refetch everything; R: drop and re-dial the push channel
//   - T: cycle theme; ?: help; q: quit
package ui
