package service

import "errors"

// Error carries a stable machine-readable code alongside a human message.
// The HTTP boundary maps codes to status codes and echoes the code
// verbatim so programmatic callers never parse message text.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Service error taxonomy. Login failures share one error regardless of
// whether the email exists, so the response never acts as an existence
// oracle.
var (
	ErrDuplicateEmail          = &Error{Code: "DUPLICATE_EMAIL", Message: "an account with this email already exists"}
	ErrInvalidCredentials      = &Error{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrSessionExpiredOrMissing = &Error{Code: "SESSION_EXPIRED_OR_MISSING", Message: "session is missing or has expired"}
	ErrInvalidOrExpiredState   = &Error{Code: "INVALID_OR_EXPIRED_STATE", Message: "oauth state is invalid, consumed, or expired"}
	ErrAlreadyConnected        = &Error{Code: "ALREADY_CONNECTED", Message: "an external account is already connected"}
	ErrNotConnected            = &Error{Code: "NOT_CONNECTED", Message: "no external account is connected"}
	ErrTokenExpired            = &Error{Code: "TOKEN_EXPIRED", Message: "external access token has expired and cannot be refreshed"}
	ErrRefreshFailed           = &Error{Code: "REFRESH_FAILED", Message: "the provider rejected the refresh token; full re-authorization is required"}
	ErrCodeExchangeFailed      = &Error{Code: "CODE_EXCHANGE_FAILED", Message: "the provider rejected the authorization code"}
	ErrProviderUnavailable     = &Error{Code: "PROVIDER_UNAVAILABLE", Message: "the external provider could not be reached"}
)

// CodeOf extracts the stable code from an error chain. Anything outside
// the taxonomy is a storage or I/O failure, surfaced rather than
// swallowed.
func CodeOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return "STORAGE_ERROR"
}
