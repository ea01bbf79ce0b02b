package middleware

import (
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// LimiterPair holds the normal and cached-tier limiters for one IP.
// The normal tier covers fresh lookups; the cached tier admits extra
// requests that may only be served from cache.
type LimiterPair struct {
	Normal *rate.Limiter
	Cached *rate.Limiter
}

// GetNormalTokens returns the whole tokens left in the normal tier.
func (lp *LimiterPair) GetNormalTokens() int {
	return int(math.Floor(lp.Normal.Tokens()))
}

// GetCachedTokens returns the whole tokens left in the cached tier.
func (lp *LimiterPair) GetCachedTokens() int {
	return int(math.Floor(lp.Cached.Tokens()))
}

// IPRateLimiter tracks a two-tier limiter pair per client IP.
type IPRateLimiter struct {
	ips         map[string]*LimiterPair
	mu          *sync.RWMutex
	normalRate  rate.Limit
	normalBurst int
	cachedRate  rate.Limit
	cachedBurst int
}

// NewIPRateLimiter creates a two-tier rate limiter.
func NewIPRateLimiter(normalRate rate.Limit, normalBurst int, cachedRate rate.Limit, cachedBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*LimiterPair),
		mu:          &sync.RWMutex{},
		normalRate:  normalRate,
		normalBurst: normalBurst,
		cachedRate:  cachedRate,
		cachedBurst: cachedBurst,
	}
}

// GetNormalLimit returns the normal tier burst limit.
func (i *IPRateLimiter) GetNormalLimit() int {
	return i.normalBurst
}

// GetCachedLimit returns the cached tier burst limit.
func (i *IPRateLimiter) GetCachedLimit() int {
	return i.cachedBurst
}

// AddIP registers a fresh limiter pair for an IP.
func (i *IPRateLimiter) AddIP(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair := &LimiterPair{
		Normal: rate.NewLimiter(i.normalRate, i.normalBurst),
		Cached: rate.NewLimiter(i.cachedRate, i.cachedBurst),
	}
	i.ips[ip] = pair
	return pair
}

// GetLimiter returns the limiter pair for an IP, creating it on first
// sight.
func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	pair, exists := i.ips[ip]
	i.mu.Unlock()

	if !exists {
		return i.AddIP(ip)
	}
	return pair
}
