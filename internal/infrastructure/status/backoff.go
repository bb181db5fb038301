package status

import "time"

// Backoff bounds reconnection attempts after a dropped connection.
// The zero value never reconnects.
type Backoff struct {
	MaxRetry  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Delay returns how long to wait before the given 1-based attempt, and
// false once attempts are exhausted.
func (b Backoff) Delay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > b.MaxRetry {
		return 0, false
	}

	// doubling stops at MaxDelay so large attempts cannot overflow
	d := b.BaseDelay
	for i := 1; i < attempt && d < b.MaxDelay; i++ {
		d *= 2
	}
	return min(d, b.MaxDelay), true
}
