package client

import (
	"time"

	"github.com/google/uuid"
)

const (
	GameTetris = "tetris"
	GameSnake  = "snake"
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Score struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Game      string    `json:"game"`
	Score     int       `json:"score"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

type ScoreSubmission struct {
	Score int    `json:"score"`
	Game  string `json:"game"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

type Settings struct {
	LeftEyeColor  string     `json:"leftEyeColor" validate:"required,hexcolor,len=7"`
	RightEyeColor string     `json:"rightEyeColor" validate:"required,hexcolor,len=7"`
	EyeDominance  string     `json:"eyeDominance" validate:"required,oneof=left-active right-active"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// DefaultSettings applies until the user saves their own
func DefaultSettings() Settings {
	return Settings{
		LeftEyeColor:  "#FF0000",
		RightEyeColor: "#0000FF",
		EyeDominance:  "left-active",
	}
}
