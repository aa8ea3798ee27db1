package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/aiblog/utils"
)

// limiterIdle is how long an idle client's bucket is kept.
const limiterIdle = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiter
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterStore(perMinute int, now func() time.Time) *limiterStore {
	perMinute = max(perMinute, 1)
	return &limiterStore{
		limiters:  map[string]*rateLimiter{},
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     max(perMinute/2, 1),
		now:       now,
		lastSweep: now(),
	}
}

// RateLimit applies a per client IP token bucket refilling perMinute tokens a minute.
func RateLimit(perMinute int) gin.HandlerFunc {
	store := newLimiterStore(perMinute, time.Now)

	return func(ctx *gin.Context) {
		if !store.get(ctx.ClientIP()).Allow() {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Idle buckets are swept at most once per limiterIdle.
	if now.Sub(s.lastSweep) >= limiterIdle {
		for k, l := range s.limiters {
			if now.After(l.expires) {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	if l, ok := s.limiters[key]; ok {
		l.expires = now.Add(limiterIdle)
		return l.limiter
	}
	l := &rateLimiter{
		limiter: rate.NewLimiter(s.limit, s.burst),
		expires: now.Add(limiterIdle),
	}
	s.limiters[key] = l
	return l.limiter
}
