package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/dichoptic/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, kind TokenKind, duration time.Duration) (string, error)
	VerifyToken(tokenStr string, kind TokenKind) (*TokenClaims, error)
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// UserRepository is the credential store used by Service. *user.Repository implements it.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, verificationToken string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*user.User, error)
	MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error
	SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
}

var _ UserRepository = (*user.Repository)(nil)
