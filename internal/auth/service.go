package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/internal/user"
)

const (
	minPasswordLength = 6
	maxEmailLength    = 254
)

// Service handles authentication business logic
type Service struct {
	userRepo             UserRepository
	tokenService         TokenService
	emailService         EmailService
	logger               *logging.Logger
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	resetTokenDuration   time.Duration

	hashParams argon2Params
	now        func() time.Time
	// dummyHash is verified against for unknown emails so both login failures cost the same
	dummyHash string

	emails sync.WaitGroup
}

func NewService(
	userRepo UserRepository,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	resetTokenDuration time.Duration,
) *Service {
	s := &Service{
		userRepo:             userRepo,
		tokenService:         tokenService,
		emailService:         emailService,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		resetTokenDuration:   resetTokenDuration,
		hashParams:           defaultArgon2Params,
		now:                  time.Now,
	}
	s.dummyHash, _ = hashPassword("dichoptic-dummy-password", s.hashParams)
	return s
}

// Wait blocks until every asynchronous email dispatch has finished
func (s *Service) Wait() {
	s.emails.Wait()
}

// Register creates a new unverified user account and sends the verification email
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, passwordHash, verificationToken)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// registration succeeds even if the email cannot be sent; the user can ask for a resend
	s.sendAsync(ctx, "verification", func(ctx context.Context) error {
		return s.emailService.SendVerificationEmail(ctx, email, verificationToken)
	})

	return newUser, nil
}

// VerifyEmail marks the unverified user holding token as verified. Tokens are single use.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}

	existingUser, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to find user by token: %w", err)
	}

	if err := s.userRepo.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// verified concurrently with the same token
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return nil
}

// ResendVerificationEmail rotates the verification token and sends it synchronously
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsVerified {
		return ErrEmailAlreadyVerified
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.userRepo.UpdateVerificationToken(ctx, existingUser.ID, token); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmailAlreadyVerified
		}
		return fmt.Errorf("failed to update verification token: %w", err)
	}

	if err := s.emailService.SendVerificationEmail(ctx, existingUser.Email, token); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	return nil
}

// Login authenticates a user and returns an access and refresh token pair.
// The password is checked before the verification status, so an unverified
// account is only revealed to a caller who already knows its password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			verifyPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsVerified {
		return nil, ErrEmailNotVerified
	}

	accessToken, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Email, TokenKindAccess, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Email, TokenKindRefresh, s.refreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.refreshTokenDuration)
	if err := s.userRepo.SetRefreshToken(ctx, existingUser.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// The refresh token itself is not rotated and stays valid until it expires or the user logs out.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.tokenService.VerifyToken(refreshToken, TokenKindRefresh)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.HasRefreshToken() {
		return nil, ErrInvalidToken
	}

	if s.now().After(*existingUser.RefreshTokenExpiry) {
		return nil, ErrRefreshTokenExpired
	}

	if !tokenHashMatches(refreshToken, *existingUser.RefreshTokenHash) {
		return nil, ErrInvalidToken
	}

	accessToken, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Email, TokenKindAccess, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// Logout clears the stored refresh token. It succeeds whether or not one was stored.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// RequestPasswordReset initiates the password reset process
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	expiresAt := s.now().Add(s.resetTokenDuration)
	if err := s.userRepo.SetResetToken(ctx, existingUser.ID, hashToken(token), expiresAt); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	s.sendAsync(ctx, "password reset", func(ctx context.Context) error {
		return s.emailService.SendPasswordResetEmail(ctx, existingUser.Email, token)
	})

	return nil
}

// ResetPassword sets a new password for the holder of a valid, unexpired reset token
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidResetToken
	}

	existingUser, err := s.userRepo.GetByResetToken(ctx, hashToken(token), s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}

	passwordHash, err := hashPassword(newPassword, s.hashParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Revoke the refresh token for security
	if err := s.userRepo.ClearRefreshToken(ctx, existingUser.ID); err != nil {
		s.logger.Warn("failed to clear refresh token after password reset", "error", err)
	}

	return nil
}

// sendAsync runs send in a tracked goroutine. Failures are logged, never returned.
func (s *Service) sendAsync(ctx context.Context, kind string, send func(context.Context) error) {
	emailCtx := context.WithoutCancel(ctx)

	s.emails.Add(1)
	go func() {
		defer s.emails.Done()
		if err := send(emailCtx); err != nil {
			s.logger.Warn("failed to send email", "kind", kind, "error", err)
		}
	}()
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
