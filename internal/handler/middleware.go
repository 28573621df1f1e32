package handler

import (
	"net/http"
	"strings"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/dto"
	"github.com/careerforge/identity-service/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	authContextKey     = "auth_context"
	externalAccountKey = "external_account"
)

// sessionToken extracts the opaque session token from the session cookie
// or, failing that, from a Bearer Authorization header.
func sessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// RequireSession resolves the session token to an acting identity and
// attaches it to the request context. Missing, unknown, and expired
// sessions all produce the same 401.
func RequireSession(sessions service.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)

		auth, err := sessions.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if service.CodeOf(err) == service.ErrSessionExpiredOrMissing.Code {
				c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
					Error:   service.ErrSessionExpiredOrMissing.Code,
					Message: service.ErrSessionExpiredOrMissing.Message,
				})
			} else {
				writeServiceError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(authContextKey, auth)
		c.Next()
	}
}

// RequireConnection guards routes that need a live external token. It
// runs after RequireSession and resolves a token through the refresh
// coordinator, so passing the guard implies a usable token is attached
// to the context. Authenticated-but-not-connected is always 403, never
// 401: the session is fine, the connection is not.
func RequireConnection(tokens service.TokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := AuthFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   service.ErrSessionExpiredOrMissing.Code,
				Message: service.ErrSessionExpiredOrMissing.Message,
			})
			c.Abort()
			return
		}

		account, err := tokens.LiveToken(c.Request.Context(), auth.User.ID, auth.Organization.ID)
		if err != nil {
			switch service.CodeOf(err) {
			case service.ErrNotConnected.Code:
				c.JSON(http.StatusForbidden, dto.ErrorResponse{
					Error:   service.ErrNotConnected.Code,
					Message: service.ErrNotConnected.Message,
				})
			case service.ErrRefreshFailed.Code, service.ErrTokenExpired.Code:
				// A dead refresh token means the stored credentials are
				// unusable until the user reconnects
				c.JSON(http.StatusForbidden, dto.ErrorResponse{
					Error:   service.ErrTokenExpired.Code,
					Message: service.ErrTokenExpired.Message,
				})
			default:
				writeServiceError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(externalAccountKey, account)
		c.Next()
	}
}

// AuthFromContext returns the identity attached by RequireSession
func AuthFromContext(c *gin.Context) (*service.AuthContext, bool) {
	value, exists := c.Get(authContextKey)
	if !exists {
		return nil, false
	}
	auth, ok := value.(*service.AuthContext)
	return auth, ok
}

// AccountFromContext returns the account attached by RequireConnection
func AccountFromContext(c *gin.Context) (*domain.ExternalAccount, bool) {
	value, exists := c.Get(externalAccountKey)
	if !exists {
		return nil, false
	}
	account, ok := value.(*domain.ExternalAccount)
	return account, ok
}
