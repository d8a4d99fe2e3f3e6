package auth

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per client address. Limiters of
// quiet clients expire after an hour.
type LoginLimiter struct {
	perMinute int
	limiters  *cache.Cache
}

func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{
		perMinute: perMinute,
		limiters:  cache.New(time.Hour, 10*time.Minute),
	}
}

func (l *LoginLimiter) Allow(client string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}
	return l.limiter(client).Allow()
}

func (l *LoginLimiter) limiter(client string) *rate.Limiter {
	if v, ok := l.limiters.Get(client); ok {
		return v.(*rate.Limiter)
	}
	newLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	// Add fails if another request created the limiter first; use theirs.
	if err := l.limiters.Add(client, newLimiter, cache.DefaultExpiration); err != nil {
		if v, ok := l.limiters.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return newLimiter
}
