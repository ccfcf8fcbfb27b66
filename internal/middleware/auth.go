// Package middleware provides request-scoped plumbing shared by every route:
// logging, credential extraction, rate limiting, metrics and tracing.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Session cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// ExtractAccessToken returns the access token from the access_token cookie,
// falling back to an "Authorization: Bearer <token>" header.
func ExtractAccessToken(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(AccessTokenCookie)); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ExtractRefreshToken returns the refresh_token cookie value.
func ExtractRefreshToken(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Cookies(RefreshTokenCookie))
}

// CurrentUserID returns the authenticated user id set by the auth guard.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// CurrentIsAdmin reports whether the authenticated principal carries the admin flag.
func CurrentIsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals(LocalIsAdmin).(bool)
	return admin
}
