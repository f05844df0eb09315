package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"readhub/pkg/domain"
)

// fileName is the session file inside the data dir.
const fileName = "session.json"

// state is the on-disk shape: the cached logged-in user plus the book id
// selected for the details/reserve pages.
type state struct {
	User           *domain.User `json:"user,omitempty"`
	SelectedBookID int          `json:"selected_book_id,omitempty"`
}

// Store persists the client-side session across runs. The cached user goes
// stale after any remote profile update and is refreshed via GetUser.
// Writes are atomic (temp file + rename); concurrent processes sharing the
// file are last-write-wins, no locking between them.
type Store struct {
	path string
	mu   sync.Mutex
	st   state
}

// Open loads the session file from dataDir. A missing or corrupt file
// yields an empty session rather than an error.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("session.Open: create data dir: %w", err)
	}
	s := &Store{path: filepath.Join(dataDir, fileName)}
	data, err := os.ReadFile(s.path)
	if err == nil {
		if json.Unmarshal(data, &s.st) != nil {
			s.st = state{}
		}
	}
	return s, nil
}

// CurrentUser returns a copy of the cached logged-in user, or nil when
// logged out.
func (s *Store) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.User == nil {
		return nil
	}
	u := *s.st.User
	return &u
}

// SetCurrentUser caches the logged-in user and persists it.
func (s *Store) SetCurrentUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.User = &u
	return s.save()
}

// Clear wipes the whole session (logout), including the book selection.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = state{}
	return s.save()
}

// SelectedBookID returns the book id persisted by the last catalog
// selection, or 0 when none is set.
func (s *Store) SelectedBookID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SelectedBookID
}

// SetSelectedBookID persists the current book selection across pages.
func (s *Store) SetSelectedBookID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.SelectedBookID = id
	return s.save()
}

// save writes the state atomically. Caller holds mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("session: write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: replace state: %w", err)
	}
	return nil
}
