package realtime

import "time"

// DefaultReconnectDelay is the flat interval between reconnect attempts.
const DefaultReconnectDelay = 3 * time.Second

// ReconnectPolicy decides how long to wait before reconnect attempt n
// (1-based, reset after every successful connection).
type ReconnectPolicy interface {
	NextDelay(attempt int) time.Duration
}

// FixedDelay retries after the same delay forever.
type FixedDelay time.Duration

// NextDelay implements ReconnectPolicy.
func (d FixedDelay) NextDelay(int) time.Duration {
	if d <= 0 {
		return DefaultReconnectDelay
	}
	return time.Duration(d)
}

// PolicyFunc adapts a function to ReconnectPolicy.
type PolicyFunc func(attempt int) time.Duration

// NextDelay implements ReconnectPolicy.
func (f PolicyFunc) NextDelay(attempt int) time.Duration {
	return f(attempt)
}
