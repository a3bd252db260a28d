package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokenvault/internal/domain"
	"tokenvault/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubDirectory struct {
	users map[int64]*domain.User
}

func (s *stubDirectory) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func testDirectory() *stubDirectory {
	return &stubDirectory{users: map[int64]*domain.User{
		42: {ID: 42, Email: "user@example.com", Role: domain.RoleClient},
	}}
}

func protectedRouter(codec *jwt.Service, dir UserDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuth(codec, dir))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetInt64("user_id"),
			"role":    c.GetString("role"),
		})
	})
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	validToken, _, _ := codec.Issue("42", jwt.KindAccess, time.Hour)

	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "client")
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	refreshToken, _, _ := codec.Issue("42", jwt.KindRefresh, time.Hour)

	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-jwt-here")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_NoToken(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")
}

func TestJWTAuth_WrongFormat(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dGVzdA==")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}

func TestJWTAuth_UnknownPrincipal(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	validToken, _, _ := codec.Issue("7", jwt.KindAccess, time.Hour)

	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_PRINCIPAL")
}

func TestJWTAuth_AccessCookieFallback(t *testing.T) {
	codec := jwt.New("test-secret-123", "tokenvault", "tokenvault")
	validToken, _, _ := codec.Issue("42", jwt.KindAccess, time.Hour)

	router := protectedRouter(codec, testDirectory())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: validToken})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
