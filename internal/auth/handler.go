package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/dichoptic/internal/httputil"
	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/internal/ratelimit"
	"github.com/redmonkez12/dichoptic/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// CredentialsRequest is the body of register and login
type CredentialsRequest struct {
	Email    string `json:"email" example:"a@b.com"`
	Password string `json:"password" example:"secret1"`
}

// RefreshRequest represents the token refresh request body. Both spellings are accepted.
type RefreshRequest struct {
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token,omitempty"`
}

func (r RefreshRequest) token() string {
	if r.RefreshToken != "" {
		return strings.TrimSpace(r.RefreshToken)
	}
	return strings.TrimSpace(r.RefreshTokenSnake)
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// TokenRequest carries a single opaque token (email verification)
type TokenRequest struct {
	Token string `json:"token"`
}

// EmailRequest carries an email address (forgot password, resend verification)
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password,omitempty"`
}

// ProfileResponse describes the presented access token
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with email and password. A verification email will be sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Registration credentials"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowIP(w, r, logger, "register") {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User:    UserResponse{ID: newUser.ID, Email: newUser.Email},
		Message: "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate user and receive access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Login credentials"
// @Success      200 {object} AuthTokens
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not verified"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowIP(w, r, logger, "login") {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotVerified) {
			logger.Warn("login failed: email not verified")
			httputil.RespondErrorWithCode(w, ErrEmailNotVerified.Error(), httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in")

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Description  Exchange a refresh token for a new access token. The refresh token is not rotated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} AuthTokens
// @Failure      400 {object} httputil.ErrorResponse "Refresh token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired refresh token"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	refreshToken := req.token()
	if refreshToken == "" {
		logger.Warn("refresh token missing")
		httputil.RespondErrorWithCode(w, "refresh token required", httputil.CodeRefreshTokenRequired, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenExpired) {
			logger.Warn("token refresh failed: expired")
			httputil.RespondErrorWithCode(w, "refresh token has expired", httputil.CodeRefreshTokenExpired, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrInvalidToken) {
			logger.Warn("token refresh failed: invalid token")
			httputil.RespondErrorWithCode(w, "invalid refresh token", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Debug("access token refreshed")

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// VerifyEmail handles email verification
// @Summary      Verify email address
// @Description  Verify a user's email address using the token sent by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "Verification token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing, invalid or already used token"
// @Router       /auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		httputil.RespondErrorWithCode(w, "verification token required", httputil.CodeVerificationTokenRequired, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		if errors.Is(err, ErrInvalidVerificationToken) {
			logger.Warn("email verification failed: invalid token")
			httputil.RespondErrorWithCode(w, "Invalid verification token.", httputil.CodeVerificationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("email verification failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email verified")

	httputil.RespondMessage(w, "Email verified successfully. You can now login.", http.StatusOK)
}

// ResendVerificationEmail handles resending verification email
// @Summary      Resend verification email
// @Description  Rotate the verification token and send it again
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Already verified"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      502 {object} httputil.ErrorResponse "Email could not be delivered"
// @Router       /auth/resend-verification [post]
func (h *Handler) ResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if !h.allowIP(w, r, logger, "") || !h.allowEmail(w, r, logger, req.Email) {
		return
	}

	err := h.service.ResendVerificationEmail(r.Context(), req.Email)
	switch {
	case err == nil:
		logger.Info("verification email resent", "email", req.Email)
		httputil.RespondMessage(w, "A new verification link has been sent.", http.StatusOK)
	case errors.Is(err, user.ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrEmailAlreadyVerified):
		httputil.RespondErrorWithCode(w, "This email is already verified. You can login now.", httputil.CodeAlreadyVerified, http.StatusBadRequest)
	case errors.Is(err, ErrEmailDeliveryFailed):
		logger.Error("resend verification failed: delivery", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send verification email", httputil.CodeEmailDeliveryFailed, http.StatusBadGateway)
	default:
		logger.Error("resend verification failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to resend verification email", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link to the user's email. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if !h.allowIP(w, r, logger, "") || !h.allowEmail(w, r, logger, req.Email) {
		return
	}

	_ = h.service.RequestPasswordReset(r.Context(), req.Email)

	httputil.RespondMessage(w, ForgotPasswordMessage, http.StatusOK)
}

// ForgotPasswordMessage is returned whether or not the account exists
const ForgotPasswordMessage = "If an account exists with that email, a password reset link has been sent."

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Reset a user's password using a valid reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or token"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	password := req.Password
	if password == "" {
		password = req.NewPassword
	}

	err := h.service.ResetPassword(r.Context(), req.Token, password)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			logger.Warn("password reset failed: invalid or expired token")
			httputil.RespondErrorWithCode(w, ErrInvalidResetToken.Error(), httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		if code, ok := validationCode(err); ok {
			httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset")

	httputil.RespondMessage(w, "Password reset successfully. You can now login with your new password.", http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the stored refresh token of the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out")

	httputil.RespondMessage(w, "logged out", http.StatusOK)
}

// Profile returns the identity carried by the access token
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /auth/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{
		ID:        claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}, http.StatusOK)
}

// allowIP checks and records the per-IP window for purpose. Limiter failures never block.
func (h *Handler) allowIP(w http.ResponseWriter, r *http.Request, logger *logging.Logger, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	ip := getClientIP(r)

	var (
		exceeded bool
		err      error
	)
	if purpose == "" {
		exceeded, err = h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	} else {
		exceeded, err = h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	}
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}

	if purpose == "" {
		err = h.rateLimiter.RecordIPRequest(r.Context(), ip)
	} else {
		err = h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose)
	}
	if err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return true
}

// allowEmail enforces the cooldown between two mail-sending requests for one address
func (h *Handler) allowEmail(w http.ResponseWriter, r *http.Request, logger *logging.Logger, email string) bool {
	if h.rateLimiter == nil || email == "" {
		return true
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", email)
		httputil.RespondErrorWithCode(w, "please wait before requesting another email", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return false
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	return true
}

func validationCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		return httputil.CodeEmailRequired, true
	case errors.Is(err, ErrInvalidEmailFormat):
		return httputil.CodeInvalidEmailFormat, true
	case errors.Is(err, ErrPasswordRequired):
		return httputil.CodePasswordRequired, true
	case errors.Is(err, ErrPasswordTooShort):
		return httputil.CodePasswordTooShort, true
	}
	return "", false
}

// getClientIP extracts the client IP address from the request.
// chi's RealIP middleware has already folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
