package session_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmgr/internal/session"
)

func loggedIn(token string) session.Session {
	return session.Session{
		LoggedIn: true,
		Token:    token,
		Message:  "Login successful",
		UserData: session.User{ID: "7", Email: "ann@example.com", Username: "ann"},
	}
}

func TestStore_DefaultIsLoggedOut(t *testing.T) {
	s := session.NewMemory()
	cur := s.Current()
	if cur.LoggedIn || cur.Token != "" {
		t.Errorf("expected logged-out default, got %+v", cur)
	}
	if _, err := s.Token(); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestStore_SetRejectsLoggedInWithoutToken(t *testing.T) {
	s := session.NewMemory()
	err := s.Set(session.Session{LoggedIn: true})
	if !errors.Is(err, session.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if s.Current().LoggedIn {
		t.Error("rejected write must not change the session")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := session.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(loggedIn("tok-1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = session.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	cur := s.Current()
	if !cur.LoggedIn || cur.Token != "tok-1" || cur.UserData.Username != "ann" {
		t.Errorf("session not restored: %+v", cur)
	}
}

func TestStore_ClearRemovesPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := session.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(loggedIn("tok-1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Current().LoggedIn {
		t.Error("expected logged out after Clear")
	}
	s.Close()

	s, err = session.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.Current().LoggedIn {
		t.Error("cleared session came back after reopen")
	}
}

func TestStore_TokenTracksCurrentSession(t *testing.T) {
	s := session.NewMemory()
	if err := s.Set(loggedIn("first")); err != nil {
		t.Fatalf("set: %v", err)
	}
	tok, err := s.Token()
	if err != nil || tok.AccessToken != "first" {
		t.Fatalf("expected token first, got %v %v", tok, err)
	}
	if err := s.Set(loggedIn("second")); err != nil {
		t.Fatalf("set: %v", err)
	}
	tok, _ = s.Token()
	if tok.AccessToken != "second" {
		t.Errorf("expected token second, got %q", tok.AccessToken)
	}
}

func TestTokenClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, ok := session.TokenClaims(signed)
	if !ok {
		t.Fatal("expected JWT to decode")
	}
	if claims.Subject != "7" || !claims.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.Expired(exp.Add(-time.Hour)) {
		t.Error("should not be expired before exp")
	}
	if !claims.Expired(exp.Add(time.Hour)) {
		t.Error("should be expired after exp")
	}

	if _, ok := session.TokenClaims("opaque-token"); ok {
		t.Error("opaque token should not decode")
	}
}
