package middleware

import (
	stdContext "context"
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/services"
	"github.com/wiz-rewards/wiz_api/shared"
)

type rateLimitConfig struct {
	MaxRequests int64
	WindowSize  time.Duration
}

// RateLimitMiddleware applies fixed-window limits backed by Redis counters.
// The reward endpoints get tight per-user budgets since every call can mint
// XP; general traffic is limited per IP.
type RateLimitMiddleware struct {
	context.DefaultService

	configs  map[string]rateLimitConfig
	redisSvc *services.RedisService
}

const RATE_LIMIT_MIDDLEWARE_SVC = "rate_limit"

func (svc *RateLimitMiddleware) Id() string {
	return RATE_LIMIT_MIDDLEWARE_SVC
}

func (svc *RateLimitMiddleware) Configure(ctx *context.Context) error {
	svc.redisSvc = ctx.Service(services.REDIS_SVC).(*services.RedisService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitMiddleware) Start() error {
	svc.configs = map[string]rateLimitConfig{
		// Playback events stream during watching; a 10s progress cadence
		// needs about 6/min, so 30 leaves generous headroom.
		"playback": {MaxRequests: 30, WindowSize: time.Minute},

		// Engagement and view recording are occasional user actions.
		"engagement": {MaxRequests: 20, WindowSize: time.Minute},

		// Login and register, per IP.
		"auth": {MaxRequests: 10, WindowSize: 15 * time.Minute},

		"api_general": {MaxRequests: 1000, WindowSize: time.Hour},
	}
	return nil
}

func (svc *RateLimitMiddleware) isAllowed(identifier, endpointType string) (bool, error) {
	config, exists := svc.configs[endpointType]
	if !exists {
		return true, nil
	}

	key := fmt.Sprintf("wiz:rl:%s:%s", endpointType, identifier)
	count, err := svc.redisSvc.IncrWindow(stdContext.Background(), key, config.WindowSize)
	if err != nil {
		return false, err
	}
	return count <= config.MaxRequests, nil
}

func (svc *RateLimitMiddleware) limit(endpointType string, identify func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := identify(c)

		allowed, err := svc.isAllowed(identifier, endpointType)
		if err != nil {
			// Redis outage must not take the API down with it.
			log.Printf("Rate limit check error for %s/%s: %v", endpointType, identifier, err)
			return c.Next()
		}

		if !allowed {
			return shared.NewTooManyRequestsError(
				fmt.Errorf("%s window exhausted for %s", endpointType, identifier),
				"Rate limit exceeded")
		}
		return c.Next()
	}
}

// IPRateLimit limits general traffic per client IP.
func (svc *RateLimitMiddleware) IPRateLimit() fiber.Handler {
	return svc.limit("api_general", clientIP)
}

// AuthRateLimit guards login and register per client IP.
func (svc *RateLimitMiddleware) AuthRateLimit() fiber.Handler {
	return svc.limit("auth", clientIP)
}

// PlaybackRateLimit limits playback events per authenticated user.
func (svc *RateLimitMiddleware) PlaybackRateLimit() fiber.Handler {
	return svc.limit("playback", userOrIP)
}

// EngagementRateLimit limits engagement and view recording per user.
func (svc *RateLimitMiddleware) EngagementRateLimit() fiber.Handler {
	return svc.limit("engagement", userOrIP)
}

func clientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	return c.IP()
}

func userOrIP(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}
	return clientIP(c)
}
