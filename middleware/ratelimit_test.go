package middleware

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(2, 5, 10, 20)

	if rl.normalRate != 2 {
		t.Errorf("Expected normal rate 2, got %v", rl.normalRate)
	}
	if rl.normalBurst != 5 {
		t.Errorf("Expected normal burst 5, got %v", rl.normalBurst)
	}
	if rl.cachedRate != 10 {
		t.Errorf("Expected cached rate 10, got %v", rl.cachedRate)
	}
	if rl.cachedBurst != 20 {
		t.Errorf("Expected cached burst 20, got %v", rl.cachedBurst)
	}
	if rl.GetNormalLimit() != 5 || rl.GetCachedLimit() != 20 {
		t.Errorf("Expected limit getters to report burst sizes, got %d and %d",
			rl.GetNormalLimit(), rl.GetCachedLimit())
	}
}

func TestAddIP(t *testing.T) {
	rl := NewIPRateLimiter(1, 5, 10, 20)
	ip := "192.168.1.1"

	pair := rl.AddIP(ip)
	if pair == nil || pair.Normal == nil || pair.Cached == nil {
		t.Fatal("Expected a complete limiter pair for new IP")
	}
	if _, exists := rl.ips[ip]; !exists {
		t.Error("Expected IP to be registered")
	}
}

func TestGetLimiterCreatesOnFirstSight(t *testing.T) {
	rl := NewIPRateLimiter(1, 5, 10, 20)
	ip := "10.0.0.1"

	first := rl.GetLimiter(ip)
	second := rl.GetLimiter(ip)

	if first == nil {
		t.Fatal("Expected limiter pair on first lookup")
	}
	if first != second {
		t.Error("Expected same limiter pair for repeated lookups of one IP")
	}
}

func TestLimiterPairsAreIndependent(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, 1, 2)

	a := rl.GetLimiter("1.1.1.1")
	b := rl.GetLimiter("2.2.2.2")

	// Drain IP a's normal tier
	a.Normal.Allow()
	a.Normal.Allow()
	if a.Normal.Allow() {
		t.Error("Expected IP a's normal tier to be drained")
	}

	// IP b is unaffected
	if !b.Normal.Allow() {
		t.Error("Expected IP b's normal tier to be untouched")
	}
}

func TestCachedTierOutlastsNormalTier(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 2, rate.Limit(0.001), 5)
	pair := rl.GetLimiter("3.3.3.3")

	// Exhaust the normal tier
	pair.Normal.Allow()
	pair.Normal.Allow()
	if pair.Normal.Allow() {
		t.Fatal("Expected normal tier exhausted after burst")
	}

	// Cached tier still has capacity
	allowed := 0
	for i := 0; i < 5; i++ {
		if pair.Cached.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("Expected 5 cached-tier requests allowed, got %d", allowed)
	}
	if pair.Cached.Allow() {
		t.Error("Expected cached tier exhausted after its burst")
	}
}

func TestTokenCountsDecrease(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 5, rate.Limit(0.001), 10)
	pair := rl.GetLimiter("4.4.4.4")

	before := pair.GetNormalTokens()
	pair.Normal.Allow()
	time.Sleep(5 * time.Millisecond)
	after := pair.GetNormalTokens()

	if after >= before {
		t.Errorf("Expected token count to decrease, before %d after %d", before, after)
	}
}
