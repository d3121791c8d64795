package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/dichoptic/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// unique_violation
const pgUniqueViolation = "23505"

// Repository handles user data persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unverified user into the database
func (r *Repository) Create(ctx context.Context, email, passwordHash, verificationToken string) (*User, error) {
	dbUser := &database.User{
		Email:             email,
		PasswordHash:      passwordHash,
		VerificationToken: &verificationToken,
		IsVerified:        false,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get user by email", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "get user by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// GetByVerificationToken retrieves an unverified user holding the given token
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getOne(ctx, "get user by verification token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("verification_token = ?", token).
			Where("is_verified = ?", false)
	})
}

// GetByResetToken retrieves the user whose reset token hash matches and has
// not expired at now. Both conditions are checked in one query.
func (r *Repository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error) {
	return r.getOne(ctx, "get user by reset token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("reset_token_hash = ?", tokenHash).
			Where("reset_token_expiry > ?", now)
	})
}

func (r *Repository) getOne(ctx context.Context, op string, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	err := where(r.db.NewSelect().Model(dbUser)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkEmailAsVerified marks a user's email as verified and clears the verification token
func (r *Repository) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	query := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_verified = ?", true).
		Set("verification_token = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("is_verified = ?", false)

	return r.execUpdate(ctx, "mark email as verified", query)
}

// UpdateVerificationToken replaces the verification token for a resend
func (r *Repository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_token = ?", token).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("is_verified = ?", false)

	return r.execUpdate(ctx, "update verification token", query)
}

// SetResetToken stores a password reset token hash with its expiry
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_token_hash = ?", tokenHash).
		Set("reset_token_expiry = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID)

	return r.execUpdate(ctx, "set reset token", query)
}

// ResetPassword replaces the password hash and clears the reset token in one statement
func (r *Repository) ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token_hash = NULL").
		Set("reset_token_expiry = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID)

	return r.execUpdate(ctx, "reset password", query)
}

// SetRefreshToken stores the refresh token hash and expiry together
func (r *Repository) SetRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token_hash = ?", tokenHash).
		Set("refresh_token_expiry = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID)

	return r.execUpdate(ctx, "set refresh token", query)
}

// ClearRefreshToken removes the stored refresh token. Clearing a user that has
// no token, or that no longer exists, is not an error.
func (r *Repository) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token_hash = NULL").
		Set("refresh_token_expiry = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	return nil
}

func (r *Repository) execUpdate(ctx context.Context, op string, query *bun.UpdateQuery) error {
	result, err := query.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                 dbu.ID,
		Email:              dbu.Email,
		PasswordHash:       dbu.PasswordHash,
		IsVerified:         dbu.IsVerified,
		VerificationToken:  dbu.VerificationToken,
		ResetTokenHash:     dbu.ResetTokenHash,
		ResetTokenExpiry:   dbu.ResetTokenExpiry,
		RefreshTokenHash:   dbu.RefreshTokenHash,
		RefreshTokenExpiry: dbu.RefreshTokenExpiry,
		CreatedAt:          dbu.CreatedAt,
		UpdatedAt:          dbu.UpdatedAt,
	}
}
