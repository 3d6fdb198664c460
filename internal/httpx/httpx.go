package httpx

import (
	"net"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Proxy modes understood by ClientIP.
const (
	ProxyNone       = "none"
	ProxyCloudflare = "cloudflare"
	ProxyXForwarded = "xforwarded"
)

// Error writes the standard error envelope.
func Error(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// QueryInt fetches an integer query parameter with a default value.
func QueryInt(c fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// QueryString fetches a trimmed query parameter with a default value.
func QueryString(c fiber.Ctx, key, defaultValue string) string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return defaultValue
	}
	return val
}

// ClientIP derives the client address according to the proxy mode. Forwarding
// headers are only trusted when the mode names them.
func ClientIP(c fiber.Ctx, proxyMode string) string {
	switch proxyMode {
	case ProxyCloudflare:
		if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
			return firstAddress(cfIP)
		}
	case ProxyXForwarded:
		if xff := c.Get("X-Forwarded-For"); xff != "" {
			return firstAddress(xff)
		}
		if realIP := c.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	ip := c.IP()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

func firstAddress(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
