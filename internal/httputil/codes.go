package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	// registration
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"

	// login and tokens
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	CodeRefreshTokenRequired  = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken   = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenExpired   = "REFRESH_TOKEN_EXPIRED"
	CodeMissingAuth           = "MISSING_AUTH"
	CodeInvalidAuthHeader     = "INVALID_AUTH_HEADER"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID    = "INVALID_TOKEN_USER_ID"

	// email verification
	CodeVerificationTokenRequired = "VERIFICATION_TOKEN_REQUIRED"
	CodeVerificationFailed        = "VERIFICATION_FAILED"
	CodeAlreadyVerified           = "ALREADY_VERIFIED"
	CodeUserNotFound              = "USER_NOT_FOUND"
	CodeEmailDeliveryFailed       = "EMAIL_DELIVERY_FAILED"

	// password reset
	CodeInvalidResetToken = "INVALID_RESET_TOKEN"

	// scores and settings
	CodeInvalidGame  = "INVALID_GAME"
	CodeInvalidScore = "INVALID_SCORE"
)
