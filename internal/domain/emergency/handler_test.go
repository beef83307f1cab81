package emergency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestServer(t *testing.T) (*echo.Echo, *fixture) {
	t.Helper()
	f := newFixture(t)
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e, e.Group("/api/v1"), passthrough)
	return e, f
}

func get(e *echo.Echo, path, subject, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, subject)
		ctx = context.WithValue(ctx, auth.UserRolesKey, []string{role})
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PublicAccess(t *testing.T) {
	e, f := newTestServer(t)
	issued, err := f.svc.IssueToken(context.Background(), f.patient.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := get(e, "/emergency/"+issued.Token, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary struct {
		Patient   map[string]interface{}   `json:"patient"`
		Allergies []map[string]interface{} `json:"allergies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Patient["license_number"] != "10896644" || len(summary.Allergies) != 1 {
		t.Errorf("unexpected summary %s", rec.Body.String())
	}

	rec = get(e, "/api/v1/emergency/access?token="+issued.Token, "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 via query, got %d", rec.Code)
	}
	if len(f.repo.logs) != 2 {
		t.Errorf("expected 2 access log entries, got %d", len(f.repo.logs))
	}

	rec = get(e, "/emergency/bogus", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for bogus token, got %d", rec.Code)
	}
	rec = get(e, "/api/v1/emergency/access", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing token, got %d", rec.Code)
	}
}

func TestHandler_IssueTokenAndQR(t *testing.T) {
	e, f := newTestServer(t)
	base := "/api/v1/patients/" + f.patient.ID.String()

	req := httptest.NewRequest(http.MethodPost, base+"/emergency-token", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, "nurse")
	ctx = context.WithValue(ctx, auth.UserRolesKey, []string{auth.RoleStaff})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var issued IssuedToken
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil || issued.Token == "" {
		t.Fatalf("expected token, got %s", rec.Body.String())
	}

	rec = get(e, base+"/emergency-qr", f.patient.ID.String(), auth.RolePatient)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	rec = get(e, base+"/emergency-qr", uuid.NewString(), auth.RolePatient)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another patient, got %d", rec.Code)
	}

	rec = get(e, "/api/v1/patients/"+uuid.NewString()+"/emergency-qr", "admin", auth.RoleAdmin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %d", rec.Code)
	}
}

func TestHandler_AccessLog(t *testing.T) {
	e, f := newTestServer(t)
	issued, _ := f.svc.IssueToken(context.Background(), f.patient.ID)
	if _, err := f.svc.Access(context.Background(), issued.Token, "10.1.1.1"); err != nil {
		t.Fatalf("access: %v", err)
	}

	rec := get(e, "/api/v1/patients/"+f.patient.ID.String()+"/access-log", "nurse", auth.RoleStaff)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data  []AccessLogEntry `json:"data"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Data[0].AccessType != AccessTypeQR {
		t.Errorf("unexpected access log %+v", resp)
	}

	rec = get(e, "/api/v1/patients/not-a-uuid/access-log", "nurse", auth.RoleStaff)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
