package user

import "errors"

// User is one human account. Online is derived bookkeeping: true while at
// least one online identity is signed into the account.
type User struct {
	ID       uint32
	Username string
	Online   bool
}

// Identity maps one transport-level identity to a logical user. UserID 0
// means the identity is connected but not signed into any profile.
type Identity struct {
	Identity string
	UserID   uint32
	Online   bool
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNotSignedIn   = errors.New("not signed in")
	ErrAlreadySigned = errors.New("not logged out, log out first")
	ErrNotLoggedIn   = errors.New("already logged out")
	ErrEmptyUsername = errors.New("username must not be empty")
)
