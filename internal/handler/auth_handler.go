package handler

import (
	"net/http"

	"github.com/careerforge/identity-service/internal/config"
	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/dto"
	"github.com/careerforge/identity-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles signup, login, logout, and identity requests
type AuthHandler struct {
	sessions service.SessionService
	cfg      config.SessionConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions service.SessionService, cfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cfg:      cfg,
	}
}

func requestMeta(c *gin.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, sessionID, maxAge, "/", "", h.cfg.CookieSecure, true)
}

// Signup handles account registration. It creates the user, an
// organization, and an admin membership, but no session: the client
// logs in explicitly afterwards.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := h.sessions.Signup(c.Request.Context(), req.Email, req.Password, req.OrgName)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SignupResponse{
		User: dto.UserInfo{
			ID:    result.User.ID,
			Email: result.User.Email,
		},
		Organization: dto.OrgInfo{
			ID:   result.Organization.ID,
			Name: result.Organization.Name,
		},
		Role: result.Membership.Role,
	})
}

// Login handles user login and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	auth, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setSessionCookie(c, auth.Session.ID, int(h.cfg.TTL.Duration.Seconds()))

	c.JSON(http.StatusOK, dto.MeResponse{
		User: dto.UserInfo{
			ID:    auth.User.ID,
			Email: auth.User.Email,
		},
		Organization: dto.OrgInfo{
			ID:   auth.Organization.ID,
			Name: auth.Organization.Name,
		},
		Role: auth.Role,
	})
}

// Logout deletes the session and clears the cookie. Logging out twice
// is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := sessionToken(c, h.cfg.CookieName)

	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		writeServiceError(c, err)
		return
	}

	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "logged out",
	})
}

// GetMe returns the acting identity resolved by RequireSession
func (h *AuthHandler) GetMe(c *gin.Context) {
	auth, ok := AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   service.ErrSessionExpiredOrMissing.Code,
			Message: service.ErrSessionExpiredOrMissing.Message,
		})
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{
		User: dto.UserInfo{
			ID:    auth.User.ID,
			Email: auth.User.Email,
		},
		Organization: dto.OrgInfo{
			ID:   auth.Organization.ID,
			Name: auth.Organization.Name,
		},
		Role: auth.Role,
	})
}

// CreateOrganization creates an organization with the acting user as
// admin. The session keeps pointing at its original organization.
func (h *AuthHandler) CreateOrganization(c *gin.Context) {
	auth, ok := AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   service.ErrSessionExpiredOrMissing.Code,
			Message: service.ErrSessionExpiredOrMissing.Message,
		})
		return
	}

	var req dto.CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	org, err := h.sessions.CreateOrganization(c.Request.Context(), auth.User.ID, req.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OrgInfo{
		ID:   org.ID,
		Name: org.Name,
	})
}
