package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"calldash/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithIdentity(c.Request.Context(), "u", role, "agent_1")
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveAs(t, RoleAdmin, RequireAnyRole(RoleClient)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serveAs(t, RoleClient, RequireAnyRole(RoleClient, RoleDemo)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DemoDeniedUnlessAllowed(t *testing.T) {
	if code := serveAs(t, RoleDemo, RequireAnyRole(RoleClient)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingIdentity(t *testing.T) {
	if code := serveAs(t, "", RequireAnyRole(RoleClient)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
