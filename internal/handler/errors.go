package handler

import (
	"net/http"

	"github.com/careerforge/identity-service/internal/dto"
	"github.com/careerforge/identity-service/internal/service"
	"github.com/gin-gonic/gin"
)

// codeValidationFailed covers request-shape problems the service layer
// never sees (malformed JSON, missing fields).
const codeValidationFailed = "VALIDATION_FAILED"

// statusForCode maps a stable service error code to an HTTP status.
// NOT_CONNECTED maps to 404 here (the resource is absent); the access
// guard overrides it with 403 for its own tier.
func statusForCode(code string) int {
	switch code {
	case "DUPLICATE_EMAIL", "ALREADY_CONNECTED":
		return http.StatusConflict
	case "INVALID_CREDENTIALS", "SESSION_EXPIRED_OR_MISSING":
		return http.StatusUnauthorized
	case "INVALID_OR_EXPIRED_STATE":
		return http.StatusBadRequest
	case "NOT_CONNECTED":
		return http.StatusNotFound
	case "TOKEN_EXPIRED", "REFRESH_FAILED":
		return http.StatusForbidden
	case "CODE_EXCHANGE_FAILED", "PROVIDER_UNAVAILABLE":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders an error with its stable code so callers can
// branch on the code instead of parsing message text
func writeServiceError(c *gin.Context, err error) {
	code := service.CodeOf(err)

	message := err.Error()
	if code == "STORAGE_ERROR" {
		// Internal failure details stay in the logs
		message = "internal error"
	}

	c.JSON(statusForCode(code), dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func writeValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   codeValidationFailed,
		Message: err.Error(),
	})
}
