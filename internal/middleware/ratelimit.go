// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/blogconsole/internal/i18n"
)

// maxLimiters bounds the per-client limiter maps.
const maxLimiters = 10000

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds drops all limiters once there are more than maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

func (lc *limiterCache[K]) len() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// clientIP returns the client address. chi's RealIP middleware has already
// replaced RemoteAddr with the proxy-reported address when one is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	cache  *limiterCache[string]
	logger *slog.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second per IP
// with the given burst. rps 0 disables limiting.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{logger: logger}
	if rps > 0 {
		rl.cache = newLimiterCache[string](rps, burst)
	}
	return rl
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.cache == nil {
		return true
	}
	return rl.cache.get(ip).Allow()
}

// Sweep drops the limiter table when it grew past its bound.
func (rl *RateLimiter) Sweep() {
	if rl.cache != nil && rl.cache.clearIfExceeds(maxLimiters) {
		rl.logger.Info("cleared client rate limiters due to size")
	}
}

// Middleware rejects POST requests over the limit with 429. Other methods
// pass through so a throttled user can still read the form.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if !rl.Allow(ip) {
				rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				http.Error(w, i18n.Tc(r.Context(), "error.rate_limited"), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SigninGuardConfig configures account lockout.
type SigninGuardConfig struct {
	// MaxFailedAttempts before the account is locked (default 5).
	MaxFailedAttempts int
	// LockoutDuration is the base lockout, doubled on each repeat (default 15m).
	LockoutDuration time.Duration
	// AttemptWindow is the window failures are counted in (default 15m).
	AttemptWindow time.Duration
}

// SigninGuard locks an email out of sign-in after repeated failures. The
// blog API has no lockout of its own.
type SigninGuard struct {
	mu       sync.Mutex
	attempts map[string]*signinAttempt

	maxFailed int
	lockout   time.Duration
	window    time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

type signinAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewSigninGuard creates a SigninGuard.
func NewSigninGuard(cfg SigninGuardConfig, logger *slog.Logger) *SigninGuard {
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SigninGuard{
		attempts:  make(map[string]*signinAttempt),
		maxFailed: cfg.MaxFailedAttempts,
		lockout:   cfg.LockoutDuration,
		window:    cfg.AttemptWindow,
		logger:    logger,
		now:       time.Now,
	}
}

// Locked reports whether email is locked and for how much longer.
func (g *SigninGuard) Locked(email string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.attempts[email]
	if !ok {
		return false, 0
	}
	if now := g.now(); now.Before(a.lockedUntil) {
		return true, a.lockedUntil.Sub(now)
	}
	return false, 0
}

// Failed records a failed sign-in and reports whether email is now locked.
func (g *SigninGuard) Failed(email string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	a, ok := g.attempts[email]
	if !ok || now.Sub(a.firstFailed) > g.window {
		if !ok {
			a = &signinAttempt{}
			g.attempts[email] = a
		}
		a.count = 1
		a.firstFailed = now
		return false, 0
	}

	a.count++
	if a.count < g.maxFailed {
		return false, 0
	}

	d := g.lockout
	for i := 0; i < a.lockouts && d < 24*time.Hour; i++ {
		d *= 2
	}
	d = min(d, 24*time.Hour)
	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0

	g.logger.Warn("sign-in locked after failed attempts", "email", email, "lockouts", a.lockouts, "duration", d)
	return true, d
}

// Succeeded clears the failures of email.
func (g *SigninGuard) Succeeded(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, email)
}

// Sweep removes entries whose lockout and window have both passed.
func (g *SigninGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for email, a := range g.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > g.window {
			delete(g.attempts, email)
			removed++
		}
	}
	return removed
}
