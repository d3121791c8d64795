package settings

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DominanceLeftActive  = "left-active"
	DominanceRightActive = "right-active"
)

var (
	ErrInvalidColor     = errors.New("eye colours must be #RRGGBB hex values")
	ErrInvalidDominance = errors.New("eye dominance must be one of: left-active, right-active")
)

// UserSettings holds the two colour filters and which eye the games treat as active
type UserSettings struct {
	UserID        uuid.UUID `json:"userId"`
	LeftEyeColor  string    `json:"leftEyeColor"`
	RightEyeColor string    `json:"rightEyeColor"`
	EyeDominance  string    `json:"eyeDominance"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Update is the client-writable part of UserSettings
type Update struct {
	LeftEyeColor  string `json:"leftEyeColor" validate:"required,hexcolor,len=7" example:"#FF0000"`
	RightEyeColor string `json:"rightEyeColor" validate:"required,hexcolor,len=7" example:"#0000FF"`
	EyeDominance  string `json:"eyeDominance" validate:"required,oneof=left-active right-active" example:"left-active"`
}
