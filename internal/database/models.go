package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email              string     `bun:"email,notnull,unique"`
	PasswordHash       string     `bun:"password_hash,notnull"`
	IsVerified         bool       `bun:"is_verified,notnull,default:false"`
	VerificationToken  *string    `bun:"verification_token"`
	ResetTokenHash     *string    `bun:"reset_token_hash"`
	ResetTokenExpiry   *time.Time `bun:"reset_token_expiry"`
	RefreshTokenHash   *string    `bun:"refresh_token_hash"`
	RefreshTokenExpiry *time.Time `bun:"refresh_token_expiry"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Score is one row of the append-only score ledger
type Score struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Game      string    `bun:"game,notnull"`
	Score     int       `bun:"score,notnull"`
	Date      string    `bun:"date,notnull"`
	Time      string    `bun:"time,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserSettings holds the per-user colour filter preferences
type UserSettings struct {
	bun.BaseModel `bun:"table:user_settings,alias:us"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID        uuid.UUID `bun:"user_id,type:uuid,notnull,unique"`
	LeftEyeColor  string    `bun:"left_eye_color,notnull"`
	RightEyeColor string    `bun:"right_eye_color,notnull"`
	EyeDominance  string    `bun:"eye_dominance,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
