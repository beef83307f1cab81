package analytics

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the staff-only reporting endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics", auth.RequireRole(auth.RoleStaff))
	g.GET("/dashboard", h.Dashboard)
	g.GET("/summary", h.Summary)
	g.GET("/states", h.States)
	g.GET("/blood-types", h.BloodTypes)
	g.GET("/ages", h.Ages)
	g.GET("/medications", h.TopMedications)
	g.GET("/allergies", h.AllergySeverity)
	g.GET("/vaccinations", h.Vaccinations)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	return respond(c, d, err)
}

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	return respond(c, s, err)
}

func (h *Handler) States(c echo.Context) error {
	b, err := h.svc.States(c.Request().Context())
	return respond(c, b, err)
}

func (h *Handler) BloodTypes(c echo.Context) error {
	b, err := h.svc.BloodTypes(c.Request().Context())
	return respond(c, b, err)
}

func (h *Handler) Ages(c echo.Context) error {
	b, err := h.svc.Ages(c.Request().Context())
	return respond(c, b, err)
}

func (h *Handler) TopMedications(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	m, err := h.svc.TopMedications(c.Request().Context(), limit)
	return respond(c, m, err)
}

func (h *Handler) AllergySeverity(c echo.Context) error {
	a, err := h.svc.AllergySeverity(c.Request().Context())
	return respond(c, a, err)
}

func (h *Handler) Vaccinations(c echo.Context) error {
	v, err := h.svc.Vaccinations(c.Request().Context())
	return respond(c, v, err)
}

func respond(c echo.Context, body interface{}, err error) error {
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, body)
}
