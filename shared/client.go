package shared

import (
	"net"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

const maxUserAgentInIdentifier = 50

func ClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := c.Context().RemoteAddr()
	if addr == nil {
		return ""
	}
	ip, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return ip
}

func UserAgent(c *fiber.Ctx) string {
	ua := c.Get(fiber.HeaderUserAgent)
	if ua == "" {
		return "unknown"
	}
	return ua
}

// ClientIdentifier keys rate limit buckets on address and browser fingerprint.
func ClientIdentifier(c *fiber.Ctx) string {
	ip := ClientIP(c)
	if ip == "" {
		ip = "no-ip"
	}

	ua := UserAgent(c)
	if utf8.RuneCountInString(ua) > maxUserAgentInIdentifier {
		ua = string([]rune(ua)[:maxUserAgentInIdentifier])
	}
	return ip + "_" + ua
}
