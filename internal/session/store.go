package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

const (
	bucketName = "session"
	storageKey = "loginState"
)

// Store owns the current Session. Writes replace the whole value and, when
// the store is file-backed, are persisted before they become visible.
type Store struct {
	mu      sync.RWMutex
	current Session
	db      *bolt.DB
}

// NewMemory returns a store that does not persist.
func NewMemory() *Store {
	return &Store{}
}

// Open opens (or creates) the session database at path and loads the
// persisted session, if any.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	s := &Store{db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		raw := b.Get([]byte(storageKey))
		if raw == nil {
			return nil
		}
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil || sess.Validate() != nil {
			// A corrupt record is treated as logged out.
			return b.Delete([]byte(storageKey))
		}
		s.current = sess
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the entire session.
func (s *Store) Set(sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		payload, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		err = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket([]byte(bucketName)).Put([]byte(storageKey), payload)
		})
		if err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}
	s.current = sess
	return nil
}

// Clear resets the session to Default and removes the persisted record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket([]byte(bucketName)).Delete([]byte(storageKey))
		})
		if err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	s.current = Default()
	return nil
}

// Token implements oauth2.TokenSource with the live session token.
func (s *Store) Token() (*oauth2.Token, error) {
	cur := s.Current()
	if !cur.HasToken() {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: cur.Token, TokenType: "Bearer"}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
