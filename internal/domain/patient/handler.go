package patient

import (
	"errors"
	"net/http"
	"time"

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

// RegisterRoutes mounts the registry and portal endpoints. loginLimit
// guards the public PIN login.
func (h *Handler) RegisterRoutes(api *echo.Group, loginLimit echo.MiddlewareFunc) {
	staff := api.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("/patients/register-scan", h.RegisterFromScan)
	staff.POST("/patients", h.Register)
	staff.GET("/patients", h.List)

	self := api.Group("/patients/:id", auth.RequireStaffOrSelf("id"))
	self.GET("", h.Get)
	self.PATCH("/medical-info", h.UpdateMedicalInfo)
	self.PUT("/pin", h.SetPIN)

	api.DELETE("/patients/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))

	api.POST("/portal/login", h.Login, loginLimit)
	api.GET("/portal/me", h.Me, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) RegisterFromScan(c echo.Context) error {
	var req ScanRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RegisterFromScan(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

type registerRequest struct {
	LicenseNumber string  `json:"license_number"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	DateOfBirth   string  `json:"date_of_birth"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	ZipCode       *string `json:"zip_code"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	BloodType     *string `json:"blood_type"`
	PIN           string  `json:"pin"`
}

func (r registerRequest) toPatient() (*Patient, error) {
	p := &Patient{
		LicenseNumber: r.LicenseNumber,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		ZipCode:       r.ZipCode,
		Phone:         r.Phone,
		Email:         r.Email,
		BloodType:     r.BloodType,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse(DateLayout, r.DateOfBirth)
		if err != nil {
			return nil, invalid("date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = &dob
	}
	return p, nil
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := req.toPatient()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.Register(c.Request().Context(), p, req.PIN); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), pg)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type medicalInfoRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) UpdateMedicalInfo(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req medicalInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateMedicalInfo(c.Request().Context(), id, req.Field, req.Value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (h *Handler) SetPIN(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req pinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetPIN(c.Request().Context(), id, req.PIN); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type loginRequest struct {
	LicenseNumber string `json:"license_number"`
	PIN           string `json:"pin"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Authenticate(c.Request().Context(), req.LicenseNumber, req.PIN)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c echo.Context) error {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "token does not identify a patient")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func httpError(err error) error {
	var ve *ValidationError
	var se *ScanError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateLicense):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, se.Reason)
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrInvalidPIN), errors.Is(err, ErrFieldNotEditable), errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
