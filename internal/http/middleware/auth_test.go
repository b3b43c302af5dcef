package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type stubAuth struct{ role user.Role }

func (s stubAuth) Login(context.Context, string, string) (string, *types.User, error) {
	return "", nil, nil
}

func (s stubAuth) Authenticate(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return ctx, domainagg.Unauthorized("test", "invalid token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: uuid.New(), Role: int(s.role)}), nil
}

func (s stubAuth) GetAccessTTL() time.Duration { return time.Hour }

func guarded(role user.Role, allowed ...user.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), stubAuth{role: role})
	r := gin.New()
	r.GET("/x", am.RequireAuth(), am.RequireRole(allowed...), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAuthAndRole(t *testing.T) {
	cases := []struct {
		name    string
		role    user.Role
		allowed []user.Role
		header  string
		want    int
	}{
		{"missing token", user.RoleReceptionist, nil, "", http.StatusUnauthorized},
		{"bad token", user.RoleReceptionist, nil, "Bearer nope", http.StatusUnauthorized},
		{"role allowed", user.RoleReceptionist, []user.Role{user.RoleReceptionist}, "Bearer good", http.StatusNoContent},
		{"role denied", user.RoleChemicalTester, []user.Role{user.RoleReceptionist}, "Bearer good", http.StatusForbidden},
		{"admin always allowed", user.RoleSuperAdmin, []user.Role{user.RoleReceptionist}, "Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, do(guarded(tc.role, tc.allowed...), tc.header))
		})
	}
}
