package scores

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	GameTetris = "tetris"
	GameSnake  = "snake"

	// MaxScore is the largest value the INTEGER score column holds
	MaxScore = 2147483647

	// TopLimit is the number of entries returned per game
	TopLimit = 10
)

var (
	ErrInvalidGame  = errors.New("game must be one of: tetris, snake")
	ErrInvalidScore = errors.New("score must be an integer between 0 and 2147483647")
	ErrInvalidEntry = errors.New("invalid score submission")
)

// Entry is one recorded game result
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Game      string    `json:"game"`
	Score     int       `json:"score"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is what a client reports after a game ends
type Submission struct {
	Game  string `validate:"required,oneof=tetris snake"`
	Score int    `validate:"min=0,max=2147483647"`
	Date  string `validate:"max=64"`
	Time  string `validate:"max=64"`
}
