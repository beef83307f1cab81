package emergency

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
	"github.com/mias/mias/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the token, QR and access-log endpoints under api,
// plus the public scan endpoints. limit throttles the unauthenticated
// lookups.
//
//	GET  /emergency/:token                       - public, QR landing
//	GET  /api/v1/emergency/access?token=         - public, JSON lookup
//	POST /api/v1/patients/:id/emergency-token    - staff or self
//	GET  /api/v1/patients/:id/emergency-qr       - staff or self, PNG
//	GET  /api/v1/patients/:id/access-log         - staff or self
func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group, limit echo.MiddlewareFunc) {
	e.GET("/emergency/:token", h.AccessByPath, limit)
	api.GET("/emergency/access", h.AccessByQuery, limit)

	g := api.Group("/patients/:id", auth.RequireStaffOrSelf("id"))
	g.POST("/emergency-token", h.IssueToken)
	g.GET("/emergency-qr", h.QRCode)
	g.GET("/access-log", h.AccessLog)
}

func (h *Handler) AccessByPath(c echo.Context) error {
	return h.access(c, c.Param("token"))
}

func (h *Handler) AccessByQuery(c echo.Context) error {
	return h.access(c, c.QueryParam("token"))
}

func (h *Handler) access(c echo.Context, token string) error {
	summary, err := h.svc.Access(c.Request().Context(), token, c.RealIP())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) IssueToken(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	issued, err := h.svc.IssueToken(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, issued)
}

func (h *Handler) QRCode(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	png, err := h.svc.QRCode(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) AccessLog(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.AccessLog(c.Request().Context(), id, pg)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*AccessLogEntry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
