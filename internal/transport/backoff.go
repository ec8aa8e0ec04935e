package transport

import "time"

// Default reconnect delays
const (
	DefaultBaseBackoff = 500 * time.Millisecond
	DefaultMaxBackoff  = 5 * time.Second
)

// Backoff returns the delay before reconnect attempt n (starting at 0):
// min(max, base*2^n). It saturates instead of overflowing.
func Backoff(n int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}

	d := base
	for i := 0; i < n; i++ {
		if d > max/2 {
			return max
		}
		d *= 2
	}
	return min(d, max)
}
