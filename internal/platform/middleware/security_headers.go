package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets hardening headers on every response. Responses that
// carry patient data must never be cached, so Cache-Control is always
// no-store. Image responses (emergency QR codes) are allowed to render in
// an <img> on the clinic front end; everything else denies all content.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Cache-Control", "no-store")

			c.Response().Before(func() {
				if strings.HasPrefix(h.Get(echo.HeaderContentType), "image/") {
					h.Set("Content-Security-Policy", "frame-ancestors 'none'")
					return
				}
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			})

			return next(c)
		}
	}
}
