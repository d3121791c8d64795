package auth

import "errors"

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrPasswordTooShort         = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrEmailNotVerified         = errors.New("email not verified, please check your inbox")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrEmailDeliveryFailed      = errors.New("failed to deliver email")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrRefreshTokenRequired     = errors.New("refresh token is required")
	ErrRefreshTokenExpired      = errors.New("refresh token has expired")

	// Token codec errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
