package api

import (
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis/v3"
)

// newLimiter builds the per-IP rate limiting middleware. Counters live in
// Redis when an address is configured, otherwise in process memory.
func (m *Module) newLimiter() (fiber.Handler, error) {
	cfg := limiter.Config{
		Max:        m.opts.RateLimitMax,
		Expiration: m.opts.RateLimitWindow,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests",
			})
		},
	}

	if m.opts.RedisAddr != "" {
		host, port, err := parseRedisAddr(m.opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		m.limiterStorage = redis.New(redis.Config{
			Host: host,
			Port: port,
		})
		cfg.Storage = m.limiterStorage
		m.logger.Info("Rate limiter using Redis storage", "addr", m.opts.RedisAddr)
	}

	return limiter.New(cfg), nil
}

// parseRedisAddr splits host:port, defaulting the port to 6379.
func parseRedisAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port given
		return addr, 6379, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid redis port in %q", addr)
	}
	if host == "" {
		host = "localhost"
	}
	return host, port, nil
}
