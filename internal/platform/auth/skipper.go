package auth

import (
	"github.com/labstack/echo/v4"
)

// publicRoutes are route patterns reachable without a bearer token: probes,
// metrics, the responder view behind an emergency QR code and portal login.
var publicRoutes = map[string]bool{
	"/health":                  true,
	"/health/db":               true,
	"/metrics":                 true,
	"/emergency/:token":        true,
	"/api/v1/emergency/access": true,
	"/api/v1/portal/login":     true,
}

// AuthSkipper matches on the route pattern, so it only works once echo has
// routed the request (group or route middleware).
func AuthSkipper(c echo.Context) bool {
	return publicRoutes[c.Path()]
}

// IsPublicRoute reports whether the route pattern skips authentication.
func IsPublicRoute(path string) bool {
	return publicRoutes[path]
}
