package token

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenvault/internal/domain"
	"tokenvault/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// CookieConfig controls the cookie contract: the access cookie spans the
// whole application, the refresh cookie is scoped to the refresh endpoint
// path only, both httpOnly.
type CookieConfig struct {
	Secure      bool
	SameSite    string
	RefreshPath string
}

// Handler manages all HTTP interactions for the token lifecycle.
type Handler struct {
	service  *Service
	verifier IdentityVerifier
	cookies  CookieConfig
}

// NewHandler creates the token handler. verifier may be nil, in which case
// the OAuth login route is not registered.
func NewHandler(service *Service, verifier IdentityVerifier, cookies CookieConfig) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		cookies:  cookies,
	}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		if h.verifier != nil {
			authGroup.POST("/oauth", h.OAuthLogin)
		}
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	sessionGroup := protected.Group("/sessions")
	{
		sessionGroup.GET("", h.ListSessions)
		sessionGroup.DELETE("/:id", h.RevokeSession)
		sessionGroup.DELETE("", h.RevokeAllSessions)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password, h.sessionContext(c, req.DeviceID, req.DeviceName, req.RememberMe, req.Metadata))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		h.serviceError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

func (h *Handler) OAuthLogin(c *gin.Context) {
	var req OAuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	identity, err := h.verifier.Verify(c.Request.Context(), req.Provider, req.IDToken)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_IDENTITY", "Identity token could not be verified")
		return
	}

	user, pair, err := h.service.OAuthLogin(c.Request.Context(), identity, h.sessionContext(c, req.DeviceID, req.DeviceName, req.RememberMe, req.Metadata))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	refreshValue := h.refreshTokenFrom(c, req.RefreshToken)
	if refreshValue == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_REFRESH_TOKEN", "No refresh token provided")
		return
	}

	pair, err := h.service.Rotate(c.Request.Context(), refreshValue, h.sessionContext(c, req.DeviceID, req.DeviceName, false, req.Metadata))
	if err != nil {
		h.clearAuthCookies(c)
		h.rotateError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	response.Success(c, http.StatusOK, gin.H{"tokens": pair})
}

func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if refreshValue := h.refreshTokenFrom(c, req.RefreshToken); refreshValue != "" {
		if _, err := h.service.RevokeByValue(c.Request.Context(), refreshValue); err != nil {
			h.serviceError(c, err)
			return
		}
	}

	h.clearAuthCookies(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) ListSessions(c *gin.Context) {
	principalID := c.GetInt64("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := h.service.ListSessions(c.Request.Context(), principalID, limit, offset)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) RevokeSession(c *gin.Context) {
	principalID := c.GetInt64("user_id")

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	ok, err := h.service.RevokeSession(c.Request.Context(), principalID, sessionID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if !ok {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Session not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

func (h *Handler) RevokeAllSessions(c *gin.Context) {
	principalID := c.GetInt64("user_id")

	count, err := h.service.RevokeAllSessions(c.Request.Context(), principalID, domain.RevokeReasonUserRevoked)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	response.Success(c, http.StatusOK, gin.H{"revoked_count": count})
}

func (h *Handler) sessionContext(c *gin.Context, deviceID, deviceName string, rememberMe bool, metadata map[string]string) SessionContext {
	return SessionContext{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
		RememberMe: rememberMe,
		Metadata:   metadata,
	}
}

// refreshTokenFrom prefers the scoped cookie, falling back to the request
// body for clients that do not use cookies.
func (h *Handler) refreshTokenFrom(c *gin.Context, bodyToken string) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	return strings.TrimSpace(bodyToken)
}

func (h *Handler) rotateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReuseDetected):
		response.Error(c, http.StatusUnauthorized, "TOKEN_REUSED", "Session revoked, please sign in again")
	case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenNotFound):
		response.Error(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session expired, please sign in again")
	case errors.Is(err, domain.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token")
	default:
		h.serviceError(c, err)
	}
}

func (h *Handler) serviceError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Temporary storage failure, retry later")
		return
	}
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

func (h *Handler) setAuthCookies(c *gin.Context, pair *TokenPair) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(accessCookieName, pair.AccessToken,
		int(time.Until(pair.AccessExpiresAt).Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshCookieName, pair.RefreshToken,
		int(time.Until(pair.RefreshExpiresAt).Seconds()), h.cookies.RefreshPath, "", h.cookies.Secure, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(accessCookieName, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshCookieName, "", -1, h.cookies.RefreshPath, "", h.cookies.Secure, true)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}
