package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const groupKey = "ratelimit_group"

type Limit struct {
	RequestsPerMinute int
	Burst             int
}

type RateLimitConfig struct {
	Global Limit
	Groups map[string]Limit
}

type RateLimiter struct {
	config RateLimitConfig

	globalLimiter *rate.Limiter

	// Per-group limiters, created on first use.
	groupLimiters sync.Map
}

func newLimiter(l Limit) *rate.Limiter {
	if l.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.RequestsPerMinute)), l.Burst)
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:        cfg,
		globalLimiter: newLimiter(cfg.Global),
	}
}

func (rl *RateLimiter) getOrCreateGroupLimiter(group string) *rate.Limiter {
	limit, exists := rl.config.Groups[group]
	if !exists {
		return nil
	}

	limiter, _ := rl.groupLimiters.LoadOrStore(group, newLimiter(limit))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.globalLimiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Global rate limit exceeded",
			})
		}
		return c.Next()
	}
}

// Group tags the route with name and enforces that group's limit, if any.
func (rl *RateLimiter) Group(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(groupKey, name)
		if limiter := rl.getOrCreateGroupLimiter(name); limiter != nil && !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded for " + name,
			})
		}
		return c.Next()
	}
}
