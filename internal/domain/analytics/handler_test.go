package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
)

func newTestServer(repo Repository) *echo.Echo {
	e := echo.New()
	NewHandler(NewService(repo)).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func get(e *echo.Echo, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, "user")
	ctx = context.WithValue(ctx, auth.UserRolesKey, []string{role})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestHandler_Summary(t *testing.T) {
	e := newTestServer(&mockRepo{})
	rec := get(e, "/api/v1/analytics/summary", auth.RoleStaff)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var s Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.TotalPatients != 2 || s.AverageAge == nil || *s.AverageAge != 41.5 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestHandler_RequiresStaff(t *testing.T) {
	e := newTestServer(&mockRepo{})
	if rec := get(e, "/api/v1/analytics/dashboard", auth.RolePatient); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if rec := get(e, "/api/v1/analytics/dashboard", auth.RoleAdmin); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestHandler_TopMedications(t *testing.T) {
	repo := &mockRepo{}
	e := newTestServer(repo)

	if rec := get(e, "/api/v1/analytics/medications?limit=5", auth.RoleStaff); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.lastLimit != 5 {
		t.Errorf("expected limit 5, got %d", repo.lastLimit)
	}
	if rec := get(e, "/api/v1/analytics/medications?limit=ten", auth.RoleStaff); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Error(t *testing.T) {
	e := newTestServer(&mockRepo{failOn: "vaccinations"})
	if rec := get(e, "/api/v1/analytics/vaccinations", auth.RoleStaff); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
