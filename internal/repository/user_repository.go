package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mkarpik/storefront-api/internal/model"
	"github.com/mkarpik/storefront-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a hashed password and returns its ID.
// New accounts are never admins; the flag is flipped manually in the
// database for staff.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_admin) VALUES (?,?,false)",
		email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var session sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,email,password_hash,is_admin,session,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.IsAdmin, &session, &u.CreatedAt, &u.UpdatedAt)
	if session.Valid {
		s := session.String
		u.Session = &s
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var session sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,email,password_hash,is_admin,session,created_at,updated_at FROM users WHERE user_id=? LIMIT 1",
		id).Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.IsAdmin, &session, &u.CreatedAt, &u.UpdatedAt)
	if session.Valid {
		s := session.String
		u.Session = &s
	}
	return u, err
}

// UpdateSession writes a new session marker for the user. Passing nil
// clears the marker, which immediately invalidates every refresh token
// minted against the previous value.
func (r *UserRepo) UpdateSession(ctx context.Context, userID uint64, session *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET session=? WHERE user_id=?",
		session, userID)
	return err
}

// ClearSessionByEmail clears the session marker of the user with the
// given email. Used by the admin revoke endpoint. Returns sql.ErrNoRows
// when no such user exists. Clearing an already-empty marker is not an
// error, so existence is checked first instead of relying on
// RowsAffected.
func (r *UserRepo) ClearSessionByEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM users WHERE email=? LIMIT 1",
		email).Scan(&id)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET session=NULL WHERE user_id=?",
		id)
	return err
}
