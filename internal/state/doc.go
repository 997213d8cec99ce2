// Package state holds the synchronized in-memory model of the relay fleet.
//
// # Overview
//
// Store is the single authoritative snapshot of devices, schedules, logs,
// stats and connection status. It is constructed once by the app package and
// handed to whichever component needs it; nothing reaches it through a
// global.
//
// # Writers
//
//	┌──────────────────┐   ReplaceAll            ┌──────────────┐
//	│ syncer.FetchAll  │────────────────────────→│              │
//	└──────────────────┘                         │              │
//	┌──────────────────┐   MergeDeviceDelta      │    Store     │──→ Snapshot()
//	│ realtime.Channel │   MergeStatusDeltas     │  (RWMutex)   │    (ui, cli)
//	│                  │   SetConnected          │              │
//	└──────────────────┘────────────────────────→│              │
//	┌──────────────────┐   SetError/ClearError   │              │
//	│ gateway.Gateway  │────────────────────────→│              │
//	└──────────────────┘                         └──────────────┘
//
// # Update Semantics
//
// ReplaceAll swaps all four collections at once. StatsSnapshot is only ever
// replaced whole; it is never merged field by field.
//
// MergeDeviceDelta copies the fields carried by a delta onto the matching
// device. Fields the delta does not carry keep their prior value. An id that
// is not in the store is ignored; the device shows up with the next bulk
// fetch. MergeStatusDeltas does the same for each entry of a status_update
// and never infers anything about devices left out of the list.
//
// The result is last-write-wins per field for merges and per record for
// ReplaceAll. A refetch racing a push delta is resolved by whichever lands
// last; for a dashboard that converges on the next event this is accepted.
//
// # Concurrency
//
// All mutation happens under one write lock, so a ReplaceAll can never
// interleave with a merge. Snapshot takes the read lock and returns deep
// copies of every slice, so readers cannot observe or cause later writes.
//
// # Teardown
//
// Close marks the store as torn down. REST calls are not cancelled when the
// UI exits, so responses can still arrive afterwards; every mutator checks
// the closed flag and drops the write.
//
// # Display Helpers
//
// Snapshot.DeviceName resolves schedule and log references. A reference to a
// device that no longer exists (for example right after a delete, before the
// refetch lands) resolves to "Unknown Device" instead of failing.
package state
