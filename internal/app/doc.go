// Package app is the composition root for relaydash.
//
// NewCore wires configuration, logging, the REST client, the store, the
// syncer and the mutation gateway. Run starts the push channel and the
// dashboard on top of it; Watch runs the same pipeline headless and logs
// every change that reaches the store.
//
// # Data Flow
//
//	┌──────────────┐  bulk fetch   ┌──────────────┐
//	│ syncer       │──────────────>│              │
//	└──────────────┘  ReplaceAll   │ state.Store  │<── snapshots ── ui / watch
//	┌──────────────┐  deltas       │              │
//	│ realtime     │──────────────>│              │
//	└──────────────┘  Merge*       └──────────────┘
//	        ▲                             ▲
//	        │ /ws                         │ banner
//	     backend  <── REST ── gateway ────┘
//
// The dashboard logs to the configured file so output never lands on the
// terminal it draws on. Watch and the one-shot commands log to stderr.
package app
