package signal

import (
	"golang.org/x/time/rate"
)

// SignalRateLimiter caps inbound messages of one connection.
type SignalRateLimiter struct {
	limiter *rate.Limiter
	dropped int
}

// NewSignalRateLimiter allows perSecond messages on average with bursts of burst.
func NewSignalRateLimiter(perSecond float64, burst int) *SignalRateLimiter {
	return &SignalRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Allow is called from the read loop only.
func (rl *SignalRateLimiter) Allow() bool {
	if rl.limiter.Allow() {
		return true
	}
	rl.dropped++
	return false
}

func (rl *SignalRateLimiter) Dropped() int {
	return rl.dropped
}
