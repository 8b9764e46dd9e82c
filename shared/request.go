package shared

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const UnknownClient = "unknown"

// ClientIP trusts the edge proxy headers only. Without them every caller
// shares the "unknown" bucket.
func ClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}

	return UnknownClient
}

func UserAgent(c *fiber.Ctx) string {
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		return ua
	}
	return UnknownClient
}

// CurrentUserID returns the authenticated user id, or "" for anonymous requests.
func CurrentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserID).(string)
	return userID
}
