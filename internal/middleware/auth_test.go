package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

type fakeAuthenticator map[string]*models.User

func (f fakeAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, ok := f[token]
	if !ok {
		return nil, types.Authentication("Not authorized, token failed")
	}
	if !user.IsActive {
		return nil, types.Authorization("Account has been deactivated")
	}
	return user, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	authenticator := fakeAuthenticator{
		"donor-token":    {BaseModel: models.BaseModel{ID: "d1"}, Role: models.RoleDonor, IsActive: true},
		"admin-token":    {BaseModel: models.BaseModel{ID: "a1"}, Role: models.RoleAdmin, IsActive: true},
		"inactive-token": {BaseModel: models.BaseModel{ID: "x1"}, Role: models.RoleDonor, IsActive: false},
	}

	r := gin.New()
	r.Use(RequestID())

	protected := r.Group("/", AuthMiddleware(authenticator))
	protected.GET("/me", func(ctx *gin.Context) {
		user, err := utils.GetCurrentUser(ctx)
		if err != nil {
			utils.RespondError(ctx, err)
			return
		}
		ctx.String(http.StatusOK, user.ID)
	})
	protected.GET("/admin", RequireRole(models.RoleAdmin), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
		body   string
	}{
		{"missing token", "/me", "", "", http.StatusUnauthorized, ""},
		{"malformed header", "/me", "Token abc", "", http.StatusUnauthorized, ""},
		{"unknown token", "/me", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"bearer", "/me", "Bearer donor-token", "", http.StatusOK, "d1"},
		{"cookie", "/me", "", "donor-token", http.StatusOK, "d1"},
		{"deactivated", "/me", "Bearer inactive-token", "", http.StatusForbidden, ""},
		{"wrong role", "/admin", "Bearer donor-token", "", http.StatusForbidden, ""},
		{"admin role", "/admin", "Bearer admin-token", "", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: types.TokenCookieName, Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Header().Get(types.RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(types.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(types.RequestIDHeader); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
}
