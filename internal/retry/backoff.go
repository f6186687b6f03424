package retry

import (
	"math/rand"
	"time"
)

const (
	baseDelay      = time.Second
	maxDelay       = 5 * time.Minute
	jitterFraction = 0.10
)

// Delay computes the pre-jitter exponential backoff for a retry:
// min(1s * 2^retryCount, 5min). Non-decreasing in retryCount.
func Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	// 2^29 seconds already exceeds the cap; shifting further would overflow.
	if retryCount > 29 {
		return maxDelay
	}
	d := baseDelay << uint(retryCount)
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// DelayWithJitter adds up to 10% random jitter on top of Delay so
// simultaneously failed jobs do not retry in lockstep.
func DelayWithJitter(retryCount int) time.Duration {
	d := Delay(retryCount)
	return d + time.Duration(rand.Float64()*jitterFraction*float64(d))
}
