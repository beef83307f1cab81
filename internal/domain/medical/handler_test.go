package medical

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/auth"
)

func serve(e *echo.Echo, method, path, body, subject, role string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, subject)
	ctx = context.WithValue(ctx, auth.UserRolesKey, []string{role})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func newTestServer(patients ...uuid.UUID) *echo.Echo {
	e := echo.New()
	NewHandler(newTestService(patients...)).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestHandler_AddListDelete(t *testing.T) {
	pid := uuid.New()
	e := newTestServer(pid)
	base := "/api/v1/patients/" + pid.String() + "/allergies"

	rec := serve(e, http.MethodPost, base, `{"allergen":"Penicillin","severity":"severe"}`, "nurse", auth.RoleStaff)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Allergy
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == uuid.Nil || created.PatientID != pid || *created.Severity != "Severe" {
		t.Errorf("unexpected record %+v", created)
	}

	rec = serve(e, http.MethodGet, base, "", "nurse", auth.RoleStaff)
	var list struct {
		Data  []Allergy `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Data[0].Allergen != "Penicillin" {
		t.Errorf("unexpected list %+v", list)
	}

	rec = serve(e, http.MethodDelete, base+"/"+created.ID.String(), "", "nurse", auth.RoleStaff)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	rec = serve(e, http.MethodDelete, base+"/"+created.ID.String(), "", "nurse", auth.RoleStaff)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestHandler_PatientManagesOwnRecords(t *testing.T) {
	pid := uuid.New()
	e := newTestServer(pid)
	path := "/api/v1/patients/" + pid.String() + "/medications"

	rec := serve(e, http.MethodPost, path, `{"medication_name":"Ibuprofen","dosage":"200mg"}`, pid.String(), auth.RolePatient)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"start_date":"`) {
		t.Errorf("expected defaulted start_date, got %s", rec.Body.String())
	}

	rec = serve(e, http.MethodGet, path, "", uuid.NewString(), auth.RolePatient)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another patient, got %d", rec.Code)
	}
}

func TestHandler_Errors(t *testing.T) {
	pid := uuid.New()
	e := newTestServer(pid)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad patient id", http.MethodGet, "/api/v1/patients/nope/conditions", "", http.StatusBadRequest},
		{"bad record id", http.MethodDelete, "/api/v1/patients/" + pid.String() + "/conditions/nope", "", http.StatusBadRequest},
		{"missing field", http.MethodPost, "/api/v1/patients/" + pid.String() + "/contacts", `{"contact_name":"Jane"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/v1/patients/" + pid.String() + "/vaccinations", `{"vaccine_name":"Flu","administration_date":"yesterday"}`, http.StatusBadRequest},
		{"unknown patient", http.MethodPost, "/api/v1/patients/" + uuid.NewString() + "/conditions", `{"condition_name":"Asthma"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, tt.body, "admin", auth.RoleAdmin)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
