package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"slot-reservation-engine/internal/handler/httperr"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// WriteLimiter keeps one token bucket per caller for the booking write routes.
// Idle buckets are dropped lazily on access.
type WriteLimiter struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	lastCleanup  time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewWriteLimiter(cfg config.ServerConfig) *WriteLimiter {
	return &WriteLimiter{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(cfg.WriteRatePerSec),
		burst:        max(cfg.WriteBurst, 1),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		lastCleanup:  time.Now(),
	}
}

// Enabled is false when WRITE_RATE_PER_SEC is 0.
func (l *WriteLimiter) Enabled() bool {
	return l != nil && l.rps > 0
}

func (l *WriteLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.cleanupEvery {
		cutoff := now.Add(-l.idleTTL)
		for k, ent := range l.entries {
			if ent.lastSeen.Before(cutoff) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	if ent, ok := l.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (l *WriteLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractSubject(c)
		if strings.TrimSpace(key) == "" {
			key = c.ClientIP()
		}

		res := l.get(key).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			c.Header(retryAfterHeader, strconv.Itoa(int(delay.Seconds())+1))
			httperr.AbortWithError(c, http.StatusTooManyRequests, errs.ErrRateLimited, "Too many requests", nil)
			return
		}
		c.Next()
	}
}
