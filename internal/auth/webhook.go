package auth

import (
	"crypto/subtle"
	"net"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookSecretHeader carries the shared secret on automation calls.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookGuard authenticates automation callers by shared secret and optional source allow-list.
// An empty secret leaves the endpoints open; callers are expected to log that at startup.
// A configured allow-list with no usable entry rejects every caller.
func WebhookGuard(secret string, allowed []string, logger *zap.Logger) fiber.Handler {
	nets, configured := parseAllowList(allowed, logger)
	if configured && len(nets) == 0 {
		logger.Error("webhook allow-list has no valid entries; rejecting all automation calls")
	}
	return func(c *fiber.Ctx) error {
		if configured && !ipAllowed(c.IP(), nets) {
			logger.Warn("webhook call from disallowed address", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return rejectWebhook(c, fiber.StatusUnauthorized, "source address not allowed")
		}
		if secret != "" {
			got := c.Get(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("webhook call with bad secret", zap.String("ip", c.IP()), zap.String("path", c.Path()))
				return rejectWebhook(c, fiber.StatusUnauthorized, "invalid webhook secret")
			}
		}
		return c.Next()
	}
}

func rejectWebhook(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"status":  "error",
		"message": message,
	})
}

// parseAllowList accepts plain addresses and CIDR blocks. configured reports whether any non-blank entry was given.
func parseAllowList(entries []string, logger *zap.Logger) (nets []*net.IPNet, configured bool) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		configured = true
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				entry = ip.String() + "/" + strconv.Itoa(bits)
			}
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warn("ignoring invalid webhook allow-list entry", zap.String("entry", entry))
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets, configured
}

func ipAllowed(raw string, nets []*net.IPNet) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
