package middleware

import (
	"strconv"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RateLimiter is the bucket-keyed limiter the HTTP layer checks against.
type RateLimiter interface {
	Check(bucket, identifier string) (dto.RateLimitInfo, error)
	Message(bucket string) string
}

// RateLimit counts the request against bucket for the caller's client
// identifier and rejects it with 429 once the window is exhausted.
func RateLimit(limiter RateLimiter, bucket string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := shared.ClientIdentifier(c)
		c.Locals(shared.ClientID, identifier)

		info, err := limiter.Check(bucket, identifier)
		if err != nil {
			// A misconfigured bucket must not take the endpoint down.
			log.WithError(err).WithField("bucket", bucket).Error("Rate limit check failed")
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))

		if !info.Allowed {
			log.WithFields(log.Fields{
				"bucket":      bucket,
				"client":      identifier,
				"retry_after": info.RetryAfter,
			}).Warn("Rate limit exceeded")
			return shared.ErrRateLimited(limiter.Message(bucket), info.RetryAfter)
		}

		return c.Next()
	}
}
