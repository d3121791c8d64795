package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionEnded means the session could not be recovered and has been cleared
	ErrSessionEnded = errors.New("session ended, please log in again")
	ErrNotLoggedIn  = errors.New("not logged in")

	ErrInvalidColor     = errors.New("colors must be #RRGGBB")
	ErrInvalidDominance = errors.New("eye dominance must be left-active or right-active")
)

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsCode reports whether err is an *APIError carrying code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
