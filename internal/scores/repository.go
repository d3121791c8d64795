package scores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/dichoptic/internal/database"
)

// Repository persists the append-only score ledger
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Insert appends a score
func (r *Repository) Insert(ctx context.Context, userID uuid.UUID, s Submission) (*Entry, error) {
	row := &database.Score{
		UserID: userID,
		Game:   s.Game,
		Score:  s.Score,
		Date:   s.Date,
		Time:   s.Time,
	}

	if _, err := r.db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert score: %w", err)
	}

	entry := mapDBScoreToEntry(row)
	return &entry, nil
}

// Top returns at most limit entries for a user and game, highest score first.
// Equal scores are ordered most recent first.
func (r *Repository) Top(ctx context.Context, userID uuid.UUID, game string, limit int) ([]Entry, error) {
	var rows []database.Score
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("game = ?", game).
		OrderExpr("score DESC, created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, mapDBScoreToEntry(&rows[i]))
	}
	return entries, nil
}

func mapDBScoreToEntry(s *database.Score) Entry {
	return Entry{
		ID:        s.ID,
		UserID:    s.UserID,
		Game:      s.Game,
		Score:     s.Score,
		Date:      s.Date,
		Time:      s.Time,
		CreatedAt: s.CreatedAt,
	}
}
