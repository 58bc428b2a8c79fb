// Package session holds the authentication state and persists it across restarts.
package session

import (
	"errors"

	"taskmgr/internal/service"
)

var (
	// ErrNoToken is returned by Store.Token when nobody is logged in.
	ErrNoToken = errors.New("no session token")

	// ErrInvalidSession rejects a logged-in session without a token.
	ErrInvalidSession = errors.New("logged-in session requires a token")
)

// User identifies the logged-in account.
type User struct {
	ID       service.ID `json:"id"`
	Email    string     `json:"email"`
	Username string     `json:"username"`
}

// Session is the whole authentication state. It is always replaced as a unit.
type Session struct {
	LoggedIn bool   `json:"loggedIn"`
	Token    string `json:"token"`
	Message  string `json:"message"`
	UserData User   `json:"userData"`
}

// Default returns the logged-out session.
func Default() Session {
	return Session{}
}

// HasToken reports whether requests should carry a bearer token.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// Validate enforces loggedIn => token.
func (s Session) Validate() error {
	if s.LoggedIn && s.Token == "" {
		return ErrInvalidSession
	}
	return nil
}
