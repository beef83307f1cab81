package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWith(subject string, roles ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, subject)
	ctx = context.WithValue(ctx, UserRolesKey, roles)
	rec := httptest.NewRecorder()
	return e.NewContext(req.WithContext(ctx), rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireRole_Allowed(t *testing.T) {
	c, rec := contextWith("u1", RoleStaff)
	if err := RequireRole(RoleStaff)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	c, _ := contextWith("u1", RoleAdmin)
	if err := RequireRole(RolePatient)(okHandler)(c); err != nil {
		t.Fatalf("admin should pass every role check: %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c, _ := contextWith("p1", RolePatient)
	err := RequireRole(RoleStaff)(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := RequireRole(RoleStaff)(okHandler)(c); err == nil {
		t.Fatal("expected error without roles")
	}
}

func TestRequireStaffOrSelf(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		roles   []string
		param   string
		allowed bool
	}{
		{"staff any patient", "s1", []string{RoleStaff}, "p9", true},
		{"admin any patient", "a1", []string{RoleAdmin}, "p9", true},
		{"patient own record", "p1", []string{RolePatient}, "p1", true},
		{"patient other record", "p1", []string{RolePatient}, "p2", false},
		{"no roles", "p1", nil, "p1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := contextWith(tt.subject, tt.roles...)
			c.SetParamNames("id")
			c.SetParamValues(tt.param)

			err := RequireStaffOrSelf("id")(okHandler)(c)
			if tt.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("expected access to be denied")
			}
		})
	}
}
