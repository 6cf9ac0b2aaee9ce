package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedKeys caps the number of tracked rate-limit keys to prevent
// memory exhaustion from attackers rotating source chat ids.
const maxTrackedKeys = 4096

// WebhookRateLimiter applies a per-key token bucket to inbound webhook
// traffic. Safe for concurrent use.
type WebhookRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewWebhookRateLimiter creates a limiter allowing rpm requests per minute
// per key. rpm <= 0 disables limiting.
func NewWebhookRateLimiter(rpm int) *WebhookRateLimiter {
	if rpm <= 0 {
		return &WebhookRateLimiter{}
	}
	return &WebhookRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(rpm) / 60.0),
		burst:    rpm,
	}
}

// Allow returns true if the key is within rate limits.
func (r *WebhookRateLimiter) Allow(key string) bool {
	if r.limiters == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lim, ok := r.limiters[key]
	if !ok {
		// Hard eviction at the cap; map iteration order gives a cheap
		// pseudo-random victim.
		if len(r.limiters) >= maxTrackedKeys {
			for k := range r.limiters {
				delete(r.limiters, k)
				break
			}
		}
		lim = rate.NewLimiter(r.limit, r.burst)
		r.limiters[key] = lim
	}
	return lim.Allow()
}
