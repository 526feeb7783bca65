package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"dashboard-inei/utils"
)

// RateLimitConfig holds all rate limiter instances
type RateLimitConfig struct {
	// AuthLimiter throttles the login endpoint to slow brute-force attempts.
	AuthLimiter fiber.Handler
	// QueryLimiter covers the read-heavy dashboard endpoints.
	QueryLimiter fiber.Handler
	// MutationLimiter covers the few endpoints that write state.
	MutationLimiter fiber.Handler
}

// NewRateLimitConfig creates all rate limiters backed by Redis so limits
// hold across replicas behind the same load balancer.
func NewRateLimitConfig(rdb *redis.Client) *RateLimitConfig {
	storage := redisstorage.NewFromConnection(rdb)

	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 5 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.ClientIP(c)
		},
		Storage: storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many authentication attempts. Please try again later.",
			})
		},
	})

	queryLimiter := limiter.New(limiter.Config{
		Max:        200,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.ClientIP(c)
		},
		Storage: storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})

	mutationLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.ClientIP(c)
		},
		Storage: storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})

	return &RateLimitConfig{
		AuthLimiter:     authLimiter,
		QueryLimiter:    queryLimiter,
		MutationLimiter: mutationLimiter,
	}
}
