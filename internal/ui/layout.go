package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which secondary columns are dropped.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show runtime and last-seen columns.
	LayoutWideWidth = 130
)

// Vertical chrome: header, tab bar, banner line and footer.
const chromeHeight = 4

// Timing constants.
const (
	// DefaultUIInterval is how often the model re-reads the store snapshot.
	DefaultUIInterval = 500 * time.Millisecond

	// IntentTimeout bounds a single user intent including its refetch.
	IntentTimeout = 15 * time.Second

	// DiagnosticsLines is how many lines of the client log are kept.
	DiagnosticsLines = 500
)
