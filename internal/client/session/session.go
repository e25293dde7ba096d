// Package session persists the signed-in identity of the CLI between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Session is the locally cached identity and bearer token.
type Session struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "jobtrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "jobtrack")
}

// DefaultPath is the session file used by the CLI.
func DefaultPath() string { return filepath.Join(Dir(), "session.json") }

// Store is a file-backed session holder safe for concurrent use.
type Store struct {
	path string

	mu   sync.Mutex
	cur  *Session
	subs map[int]func(*Session)
	next int
}

// New returns a Store backed by path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path, subs: make(map[int]func(*Session))}
}

// Load reads the session file. A missing file is not an error and yields nil.
func (s *Store) Load() (*Session, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.set(nil, false)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("session: corrupt %s: %w", s.path, err)
	}
	if sess.Token == "" {
		s.set(nil, false)
		return nil, nil
	}
	s.set(&sess, false)
	return s.Current(), nil
}

// Save writes sess to disk (0600) and notifies subscribers.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.set(&sess, true)
	return nil
}

// Clear deletes the local copy of the session (logout) and notifies subscribers.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.set(nil, true)
	return nil
}

// Current returns a copy of the active session or nil.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	c := *s.cur
	return &c
}

// CurrentToken returns the bearer token when signed in.
func (s *Store) CurrentToken() (string, bool) {
	if c := s.Current(); c != nil {
		return c.Token, true
	}
	return "", false
}

// CurrentUserID returns the signed-in user id.
func (s *Store) CurrentUserID() (string, bool) {
	if c := s.Current(); c != nil && c.ID != "" {
		return c.ID, true
	}
	return "", false
}

// OnAuthChange registers fn to run after every Save and Clear with the new
// session (nil after Clear). The returned func unregisters it.
func (s *Store) OnAuthChange(fn func(*Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) set(sess *Session, notify bool) {
	s.mu.Lock()
	s.cur = sess
	var subs []func(*Session)
	if notify {
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		var c *Session
		if sess != nil {
			cp := *sess
			c = &cp
		}
		fn(c)
	}
}
