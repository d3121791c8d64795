package user

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db := bun.NewDB(sqlDB, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db), mock
}

var userColumns = []string{"id", "email", "password_hash", "is_verified", "verification_token", "created_at", "updated_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "users" .*'a@b\.com'.*RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "a@b.com", "hash", false, "tok", now, now))

	got, err := repo.Create(context.Background(), "a@b.com", "hash", "tok")
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "a@b.com", got.Email)
	assert.False(t, got.IsVerified)
	require.NotNil(t, got.VerificationToken)
	assert.Equal(t, "tok", *got.VerificationToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), "a@b.com", "hash", "tok")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "a@b.com", "hash", "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT .* FROM "users" AS "u" WHERE \(email = 'a@b\.com'\) LIMIT 1`).
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "a@b.com", "hash", true, nil, now, now))

		got, err := repo.GetByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.True(t, got.IsVerified)
		assert.Nil(t, got.VerificationToken)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(`SELECT .* FROM "users"`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := repo.GetByEmail(context.Background(), "nobody@b.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetByVerificationToken_OnlyUnverified(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (verification_token = 'tok') AND (is_verified = FALSE)`)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByVerificationToken(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByResetToken_ChecksExpiryInQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE \(reset_token_hash = 'h'\) AND \(reset_token_expiry > '.+'\)`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByResetToken(context.Background(), "h", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEmailAsVerified(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectExec(`UPDATE "users" AS "u" SET is_verified = TRUE, verification_token = NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkEmailAsVerified(context.Background(), uuid.New()))
	})

	t.Run("no rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.MarkEmailAsVerified(context.Background(), uuid.New()), ErrNotFound)
	})
}

func TestSetRefreshToken_WritesHashAndExpiryTogether(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE "users" AS "u" SET refresh_token_hash = 'abc', refresh_token_expiry = '.+'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetRefreshToken(context.Background(), uuid.New(), "abc", time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearRefreshToken_Idempotent(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`SET refresh_token_hash = NULL, refresh_token_expiry = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.ClearRefreshToken(context.Background(), uuid.New()))
}

func TestResetPassword_ClearsResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`SET password_hash = 'newhash', reset_token_hash = NULL, reset_token_expiry = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.ResetPassword(context.Background(), uuid.New(), "newhash"))
}

func TestUser_HasRefreshToken(t *testing.T) {
	h := "x"
	exp := time.Now()

	assert.False(t, (&User{}).HasRefreshToken())
	assert.False(t, (&User{RefreshTokenHash: &h}).HasRefreshToken())
	assert.True(t, (&User{RefreshTokenHash: &h, RefreshTokenExpiry: &exp}).HasRefreshToken())
}
