package handler

import (
	"net/http"
	"time"

	"github.com/careerforge/identity-service/internal/dto"
	"github.com/careerforge/identity-service/internal/service"
	"github.com/gin-gonic/gin"
)

// OAuthHandler handles external account connect, callback, status,
// disconnect, and token requests
type OAuthHandler struct {
	linker service.AccountLinker
}

// NewOAuthHandler creates a new oauth handler
func NewOAuthHandler(linker service.AccountLinker) *OAuthHandler {
	return &OAuthHandler{
		linker: linker,
	}
}

// Connect initiates the provider authorization flow and returns the
// URL to redirect the user to
func (h *OAuthHandler) Connect(c *gin.Context) {
	auth, ok := AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   service.ErrSessionExpiredOrMissing.Code,
			Message: service.ErrSessionExpiredOrMissing.Message,
		})
		return
	}

	prompt, err := h.linker.InitiateConnect(c.Request.Context(), auth, requestMeta(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectResponse{
		AuthorizationURL: prompt.AuthorizationURL,
		State:            prompt.State,
	})
}

// Callback completes the authorization flow. The route is reached by a
// provider redirect, so the state nonce is the only thing tying the
// request back to the user who initiated the connect.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   codeValidationFailed,
			Message: "code and state query parameters are required",
		})
		return
	}

	if err := h.linker.HandleCallback(c.Request.Context(), code, state); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "external account connected",
	})
}

// Status reports whether an external account is connected. It never
// refreshes anything.
func (h *OAuthHandler) Status(c *gin.Context) {
	auth, ok := AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   service.ErrSessionExpiredOrMissing.Code,
			Message: service.ErrSessionExpiredOrMissing.Message,
		})
		return
	}

	status, err := h.linker.Status(c.Request.Context(), auth.User.ID, auth.Organization.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionStatusResponse{
		IsConnected:      status.IsConnected,
		ExpiresInSeconds: status.ExpiresInSeconds,
		ConnectedAt:      status.ConnectedAt,
	})
}

// Disconnect removes the external account link
func (h *OAuthHandler) Disconnect(c *gin.Context) {
	auth, ok := AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   service.ErrSessionExpiredOrMissing.Code,
			Message: service.ErrSessionExpiredOrMissing.Message,
		})
		return
	}

	if err := h.linker.Disconnect(c.Request.Context(), auth.User.ID, auth.Organization.ID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "external account disconnected",
	})
}

// Token returns the live access token resolved by RequireConnection.
// The guard already ran the refresh coordinator, so the token here is
// guaranteed usable.
func (h *OAuthHandler) Token(c *gin.Context) {
	account, ok := AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   service.ErrNotConnected.Code,
			Message: service.ErrNotConnected.Message,
		})
		return
	}

	expiresIn := int64(time.Until(account.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	c.JSON(http.StatusOK, dto.AccessTokenResponse{
		AccessToken:      account.AccessToken,
		ExpiresInSeconds: expiresIn,
		Scopes:           account.Scopes,
	})
}
