package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserSettings, error)
	Upsert(ctx context.Context, userID uuid.UUID, u Update, now time.Time) (*UserSettings, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store Store, validate *validator.Validate) *Service {
	return &Service{store: store, validate: validate, now: time.Now}
}

// Get returns the stored settings, or nil if the user has none yet
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*UserSettings, error) {
	return s.store.Get(ctx, userID)
}

// Upsert validates and replaces the user's settings. Colours are stored upper-case.
func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, u Update) (*UserSettings, error) {
	if err := s.validate.Struct(u); err != nil {
		return nil, validationError(err)
	}

	u.LeftEyeColor = strings.ToUpper(u.LeftEyeColor)
	u.RightEyeColor = strings.ToUpper(u.RightEyeColor)

	return s.store.Upsert(ctx, userID, u, s.now().UTC())
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate settings: %w", err)
	}
	if fieldErrs[0].Field() == "EyeDominance" {
		return ErrInvalidDominance
	}
	return ErrInvalidColor
}
