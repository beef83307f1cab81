package medical

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts add, list and delete for every record kind under
// /patients/:id. Patients may manage their own records.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients/:id", auth.RequireStaffOrSelf("id"))
	mount(g, "/conditions", h.svc.Conditions, func() *Condition { return &Condition{} })
	mount(g, "/allergies", h.svc.Allergies, func() *Allergy { return &Allergy{} })
	mount(g, "/medications", h.svc.Medications, func() *Medication { return &Medication{} })
	mount(g, "/vaccinations", h.svc.Vaccinations, func() *Vaccination { return &Vaccination{} })
	mount(g, "/insurance", h.svc.Insurance, func() *Insurance { return &Insurance{} })
	mount(g, "/contacts", h.svc.Contacts, func() *Contact { return &Contact{} })
}

func mount[T Record](g *echo.Group, path string, col *Collection[T], fresh func() T) {
	g.POST(path, createHandler(col, fresh))
	g.GET(path, listHandler(col))
	g.DELETE(path+"/:recordId", deleteHandler(col))
}

func createHandler[T Record](col *Collection[T], fresh func() T) echo.HandlerFunc {
	return func(c echo.Context) error {
		patientID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		rec := fresh()
		if err := c.Bind(rec); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := col.Add(c.Request().Context(), patientID, rec); err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusCreated, rec)
	}
}

func listHandler[T Record](col *Collection[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		patientID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		items, err := col.List(c.Request().Context(), patientID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data":  items,
			"total": len(items),
		})
	}
}

func deleteHandler[T Record](col *Collection[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		patientID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		id, err := uuid.Parse(c.Param("recordId"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
		}
		if err := col.Delete(c.Request().Context(), patientID, id); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
