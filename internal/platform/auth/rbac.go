package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			for _, required := range roles {
				if HasRole(ctx, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireStaffOrSelf admits staff and admins to any patient, and a patient
// only to the record named by the :param path parameter.
func RequireStaffOrSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if HasRole(ctx, RoleStaff) {
				return next(c)
			}
			if HasRole(ctx, RolePatient) && UserIDFromContext(ctx) == c.Param(param) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "access to this patient is not permitted")
		}
	}
}
