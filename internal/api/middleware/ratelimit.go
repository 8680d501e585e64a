package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitSettings configures admission control for the provisioning
// endpoints. A level with a zero rate or burst is disabled.
type RateLimitSettings struct {
	GlobalQPS        float64
	GlobalBurst      int
	PrefixQPS        float64
	PrefixBurst      int
	IPQPS            float64
	IPBurst          int
	Cleanup          time.Duration
	MaxPrefixEntries int
	MaxIPEntries     int
}

// Enabled reports whether any level limits anything.
func (s RateLimitSettings) Enabled() bool {
	return (s.GlobalQPS > 0 && s.GlobalBurst > 0) ||
		(s.PrefixQPS > 0 && s.PrefixBurst > 0) ||
		(s.IPQPS > 0 && s.IPBurst > 0)
}

// String summarizes the settings for the startup log.
func (s RateLimitSettings) String() string {
	level := func(name string, qps float64, burst int) string {
		if qps <= 0 || burst <= 0 {
			return name + "=disabled"
		}
		return fmt.Sprintf("%s=%gqps/%d", name, qps, burst)
	}
	return fmt.Sprintf("%s %s %s cleanup=%s max_prefix=%d max_ip=%d",
		level("global", s.GlobalQPS, s.GlobalBurst),
		level("prefix", s.PrefixQPS, s.PrefixBurst),
		level("ip", s.IPQPS, s.IPBurst),
		s.Cleanup, s.MaxPrefixEntries, s.MaxIPEntries)
}

// RateLimiter combines global, per-prefix and per-IP token buckets.
// A request must pass all three levels.
type RateLimiter struct {
	global *keyedLimiter
	prefix *keyedLimiter
	ip     *keyedLimiter
}

// NewRateLimiter builds a RateLimiter from s.
func NewRateLimiter(s RateLimitSettings) *RateLimiter {
	cleanup := s.Cleanup
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &RateLimiter{
		global: newKeyedLimiter(s.GlobalQPS, s.GlobalBurst, cleanup, 1),
		prefix: newKeyedLimiter(s.PrefixQPS, s.PrefixBurst, cleanup, s.MaxPrefixEntries),
		ip:     newKeyedLimiter(s.IPQPS, s.IPBurst, cleanup, s.MaxIPEntries),
	}
}

// Allow reports whether a request from clientIP is admitted, consuming a
// token at every level when it is.
func (r *RateLimiter) Allow(clientIP string) bool {
	if r == nil {
		return true
	}
	// global -> prefix -> ip; fail fast
	if !r.global.allow("*") {
		return false
	}
	if !r.prefix.allow(prefixKey(clientIP)) {
		return false
	}
	return r.ip.allow(clientIP)
}

// RateLimit rejects requests over the limit with 429. A nil limiter admits
// everything.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// keyedLimiter holds one token bucket per key. Buckets idle for longer than
// cleanup are evicted; at most maxEntries keys are tracked.
type keyedLimiter struct {
	limit      rate.Limit
	burst      int
	cleanup    time.Duration
	maxEntries int

	mu          sync.Mutex
	lastCleanup time.Time
	buckets     map[string]*bucket
}

func newKeyedLimiter(qps float64, burst int, cleanup time.Duration, maxEntries int) *keyedLimiter {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &keyedLimiter{
		limit:       rate.Limit(qps),
		burst:       burst,
		cleanup:     cleanup,
		maxEntries:  maxEntries,
		lastCleanup: time.Now(),
		buckets:     map[string]*bucket{},
	}
}

func (l *keyedLimiter) allow(key string) bool {
	if l == nil || l.limit <= 0 || l.burst <= 0 {
		return true
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) > l.cleanup {
		l.cleanupLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxEntries {
			l.cleanupLocked(now)
			if len(l.buckets) >= l.maxEntries {
				return false
			}
		}
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// cleanupLocked evicts idle buckets. Must be called with l.mu held.
func (l *keyedLimiter) cleanupLocked(now time.Time) {
	staleBefore := now.Add(-l.cleanup)
	for k, b := range l.buckets {
		if !b.seen.After(staleBefore) {
			delete(l.buckets, k)
		}
	}
	l.lastCleanup = now
}

// prefixKey maps an address to its /24 (IPv4) or /64 (IPv6) network.
// Unparseable input is keyed as-is.
func prefixKey(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "ip:" + ip
	}
	addr = addr.Unmap()
	bits := 64
	if addr.Is4() {
		bits = 24
	}
	pfx, err := addr.Prefix(bits)
	if err != nil {
		return "ip:" + ip
	}
	if addr.Is4() {
		return "v4:" + pfx.String()
	}
	return "v6:" + pfx.String()
}
