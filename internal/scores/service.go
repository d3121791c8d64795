package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/redmonkez12/dichoptic/internal/logging"
)

// Store is the persistent ledger. *Repository implements it.
type Store interface {
	Insert(ctx context.Context, userID uuid.UUID, s Submission) (*Entry, error)
	Top(ctx context.Context, userID uuid.UUID, game string, limit int) ([]Entry, error)
}

// Cache holds top lists in front of the Store. *RedisCache implements it.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID, game string) ([]Entry, bool, error)
	Generation(ctx context.Context, userID uuid.UUID, game string) (int64, error)
	// Set must not store entries if an Invalidate happened after gen was read
	Set(ctx context.Context, userID uuid.UUID, game string, entries []Entry, gen int64) (bool, error)
	Invalidate(ctx context.Context, userID uuid.UUID, game string) error
}

// Service is the score ledger
type Service struct {
	store      Store
	cache      Cache
	validate   *validator.Validate
	rejectZero bool
}

// NewService builds the ledger. cache may be nil. With rejectZero set, a score
// of exactly 0 is dropped without being stored.
func NewService(store Store, cache Cache, validate *validator.Validate, rejectZero bool) *Service {
	return &Service{
		store:      store,
		cache:      cache,
		validate:   validate,
		rejectZero: rejectZero,
	}
}

// ListTop returns at most TopLimit entries for game, highest score first
func (s *Service) ListTop(ctx context.Context, userID uuid.UUID, game string) ([]Entry, error) {
	if err := s.validate.Var(game, "required,oneof=tetris snake"); err != nil {
		return nil, ErrInvalidGame
	}

	logger := logging.GetLoggerFromContext(ctx)

	// the generation is read before the database so a concurrent Record is detected
	cacheable := false
	var gen int64
	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, userID, game)
		if err != nil {
			logger.Warn("score cache read failed", "error", err)
		} else if ok {
			return entries, nil
		} else if gen, err = s.cache.Generation(ctx, userID, game); err != nil {
			logger.Warn("score cache read failed", "error", err)
		} else {
			cacheable = true
		}
	}

	entries, err := s.store.Top(ctx, userID, game, TopLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	if cacheable {
		stored, err := s.cache.Set(ctx, userID, game, entries, gen)
		if err != nil {
			logger.Warn("score cache write failed", "error", err)
		} else if !stored {
			logger.Debug("score cache write skipped, newer score recorded", "game", game)
		}
	}

	return entries, nil
}

// Record appends a score. It returns nil, nil when the zero-score policy rejects it.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, sub Submission) (*Entry, error) {
	if err := s.validate.Struct(sub); err != nil {
		return nil, validationError(err)
	}

	logger := logging.GetLoggerFromContext(ctx)

	if s.rejectZero && sub.Score == 0 {
		logger.Info("score of 0 rejected", "user_id", userID, "game", sub.Game)
		return nil, nil
	}

	entry, err := s.store.Insert(ctx, userID, sub)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID, sub.Game); err != nil {
			logger.Warn("score cache invalidation failed", "error", err)
		}
	}

	return entry, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate score: %w", err)
	}

	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Game":
			return ErrInvalidGame
		case "Score":
			return ErrInvalidScore
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidEntry, fieldErrs[0].Error())
}
