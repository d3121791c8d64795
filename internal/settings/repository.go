package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/dichoptic/internal/database"
)

type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Get returns nil, nil when the user has never saved settings
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*UserSettings, error) {
	row := new(database.UserSettings)
	err := r.db.NewSelect().Model(row).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return mapDBSettings(row), nil
}

// Upsert writes all three fields in one statement
func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, u Update, now time.Time) (*UserSettings, error) {
	row := &database.UserSettings{
		UserID:        userID,
		LeftEyeColor:  u.LeftEyeColor,
		RightEyeColor: u.RightEyeColor,
		EyeDominance:  u.EyeDominance,
		UpdatedAt:     now,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("left_eye_color = EXCLUDED.left_eye_color").
		Set("right_eye_color = EXCLUDED.right_eye_color").
		Set("eye_dominance = EXCLUDED.eye_dominance").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return mapDBSettings(row), nil
}

func mapDBSettings(s *database.UserSettings) *UserSettings {
	return &UserSettings{
		UserID:        s.UserID,
		LeftEyeColor:  s.LeftEyeColor,
		RightEyeColor: s.RightEyeColor,
		EyeDominance:  s.EyeDominance,
		UpdatedAt:     s.UpdatedAt,
	}
}
