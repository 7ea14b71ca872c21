package auth

import (
	"fmt"
	"sync/atomic"
	"time"
)

var lastRollMillis int64

// nextRollNumber derives a roll number from the wall clock, bumping past the
// previously issued value so concurrent registrations never collide.
func nextRollNumber(now time.Time) string {
	millis := now.UnixMilli()
	for {
		last := atomic.LoadInt64(&lastRollMillis)
		if millis <= last {
			millis = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastRollMillis, last, millis) {
			return fmt.Sprintf("STU-%d", millis)
		}
	}
}
