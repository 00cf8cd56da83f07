package middleware

import (
	"strings"

	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

var DefaultAllowedOrigins = []string{"localhost", "pages.dev"}

// ParseAllowedOrigins splits a comma separated ALLOWED_ORIGINS value.
func ParseAllowedOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	if len(origins) == 0 {
		return DefaultAllowedOrigins
	}
	return origins
}

// ValidOrigin reports whether origin or referer contains one of the allowed
// entries. A request carrying neither is rejected.
func ValidOrigin(origin, referer string, allowed []string) bool {
	if origin == "" && referer == "" {
		return false
	}
	return matchesAny(origin, allowed) || matchesAny(referer, allowed)
}

func matchesAny(source string, allowed []string) bool {
	if source == "" {
		return false
	}
	for _, entry := range allowed {
		if strings.Contains(source, entry) {
			return true
		}
	}
	return false
}

func OriginGuard(allowed []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		referer := c.Get(fiber.HeaderReferer)

		if !ValidOrigin(origin, referer, allowed) {
			log.WithFields(log.Fields{
				"origin":  origin,
				"referer": referer,
				"path":    c.Path(),
				"ip":      shared.ClientIP(c),
			}).Warn("Rejected request from unauthorized origin")
			return shared.ErrOrigin
		}
		return c.Next()
	}
}
