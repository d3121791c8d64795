package settings

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

var settingsColumns = []string{"id", "user_id", "left_eye_color", "right_eye_color", "eye_dominance", "updated_at"}

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db := bun.NewDB(sqlDB, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_GetMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM "user_settings" AS "us" WHERE \(user_id = '.+'\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(settingsColumns))

	s, err := repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Upsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO "user_settings" .* ON CONFLICT \(user_id\) DO UPDATE SET left_eye_color = EXCLUDED\.left_eye_color.* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(settingsColumns).AddRow(uuid.NewString(), u.String(), "#FF0000", "#0000FF", "left-active", now))

	s, err := repo.Upsert(context.Background(), u, Update{LeftEyeColor: "#FF0000", RightEyeColor: "#0000FF", EyeDominance: "left-active"}, now)
	require.NoError(t, err)
	assert.Equal(t, u, s.UserID)
	assert.Equal(t, "left-active", s.EyeDominance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
