package model

import "time"

// User represents a customer or administrator record as stored in the
// `users` table. The json tags are omitted because these structs are
// used internally by the repository layer; handlers define separate
// response types with appropriate JSON tags.
//
// Fields:
//
//	UserID       – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	IsAdmin      – whether the account has administrative rights.
//	Session      – opaque session marker (uuid), regenerated at login and
//	               cleared at logout. A refresh token is only honoured
//	               while its embedded marker equals this value, so
//	               clearing or replacing it revokes every outstanding
//	               refresh token at once.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	UserID       uint64    // users.user_id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsAdmin      bool      // users.is_admin
	Session      *string   // users.session (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
