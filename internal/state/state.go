// Package state persists where the reader left off in each book.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // leading bytes of the raw text that identify a book
)

// Position is the saved place in one book. Block is the index of the first
// visible block, which survives changes of window width.
type Position struct {
	Block  int       `json:"block"`
	Title  string    `json:"title,omitempty"`
	Source string    `json:"source,omitempty"`
	Saved  time.Time `json:"saved"`
}

// Store keeps positions in a single JSON file.
type Store struct {
	path string
	data map[string]Position
	mu   sync.RWMutex
}

// Open creates or loads the store under XDG_STATE_HOME/limn/.
func Open() (*Store, error) {
	return OpenDir(Dir())
}

// OpenDir creates or loads the store in dir.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]Position),
	}
	if err := store.load(); err != nil {
		// Corrupt state is not fatal; start over.
		store.data = make(map[string]Position)
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/limn or ~/.local/state/limn.
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "limn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "limn")
}

// Key identifies a book by the start of its raw text.
func Key(raw string) string {
	b := []byte(raw)
	if len(b) > hashBytes {
		b = b[:hashBytes]
	}
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:16])
}

// Get returns the saved position for key.
func (s *Store) Get(key string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[key]
	return p, ok
}

// Block returns the saved block index for key, or 0.
func (s *Store) Block(key string) int {
	p, _ := s.Get(key)
	return p.Block
}

// Save records p under key and writes the file.
func (s *Store) Save(key string, p Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Saved.IsZero() {
		p.Saved = time.Now().UTC()
	}
	s.data[key] = p
	return s.save()
}

// Clear forgets key.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

// Len returns the number of books with a saved position.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
