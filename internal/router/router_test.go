package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowforge/internal/domain"
	"flowforge/internal/handler"
	"flowforge/internal/middleware"
	"flowforge/internal/router"
	"flowforge/mocks"
)

const secret = "router-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(verifier *middleware.TokenVerifier) (*gin.Engine, *mocks.MockProcessService) {
	svc := new(mocks.MockProcessService)
	r := router.Setup(
		verifier,
		[]string{"http://localhost:3000"},
		handler.NewProcessHandler(svc),
		handler.NewRunHandler(svc),
		handler.NewCacheHandler(svc),
		handler.NewHealthHandler(nil, nil),
	)
	return r, svc
}

func bearer(t *testing.T, role domain.UserRole) string {
	t.Helper()
	claims := &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_OperationalEndpointsArePublic(t *testing.T) {
	r, _ := setup(middleware.NewTokenVerifier(secret, ""))

	w := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}

func TestRouter_RequiresTokenWhenConfigured(t *testing.T) {
	r, svc := setup(middleware.NewTokenVerifier(secret, ""))

	w := serve(r, http.MethodGet, "/api/v1/cache/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.On("CacheStats", mock.Anything).Return(&domain.CacheStats{Date: "2025-07-09"}, nil)
	w = serve(r, http.MethodGet, "/api/v1/cache/stats", bearer(t, domain.RoleMember))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CacheClearRequiresAdmin(t *testing.T) {
	r, svc := setup(middleware.NewTokenVerifier(secret, ""))
	svc.On("ClearCache", mock.Anything, "").Return(3, nil)

	w := serve(r, http.MethodDelete, "/api/v1/cache", bearer(t, domain.RoleMember))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodDelete, "/api/v1/cache", bearer(t, domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNumberOfCalls(t, "ClearCache", 1)
}

func TestRouter_OpenWithoutVerifier(t *testing.T) {
	r, svc := setup(nil)
	svc.On("ListRuns", mock.Anything, 0, 20).Return([]domain.ParseRun{}, 0, nil)

	w := serve(r, http.MethodGet, "/api/v1/runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Preflight(t *testing.T) {
	r, _ := setup(middleware.NewTokenVerifier(secret, ""))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/process/parse", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ChatRoute(t *testing.T) {
	r, svc := setup(middleware.NewTokenVerifier(secret, ""))
	svc.On("Chat", mock.Anything, mock.Anything).Return("Who starts it?", nil)

	w := serve(r, http.MethodPost, "/api/v1/process/chat", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/process/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, domain.RoleMember))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Who starts it?")
}
