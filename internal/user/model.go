package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // Never expose password hash in JSON
	IsVerified         bool       `json:"is_verified"`
	VerificationToken  *string    `json:"-"`
	ResetTokenHash     *string    `json:"-"`
	ResetTokenExpiry   *time.Time `json:"-"`
	RefreshTokenHash   *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasRefreshToken reports whether a refresh token hash and its expiry are stored
func (u *User) HasRefreshToken() bool {
	return u.RefreshTokenHash != nil && u.RefreshTokenExpiry != nil
}
