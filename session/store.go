package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/yukawa/avatarbridge/crypto"
)

// ErrNotFound is returned for unknown session ids. Callers translate it
// into an unauthenticated response, never a crash.
var ErrNotFound = errors.New("session not found")

// Store maps session ids to cookie jars and owns their persistence.
//
// Every mutation rewrites the whole session file synchronously under the
// store mutex, so concurrent requests for the same id cannot interleave
// the read-modify-persist cycle and lose a write.
type Store struct {
	mu       sync.Mutex
	path     string
	codec    *crypto.Codec
	logger   *slog.Logger
	sessions map[string]*Jar
}

// NewStore loads the session file at path, decrypting it when the codec is
// available. A missing file starts an empty store. A file that fails to
// decrypt or parse also starts an empty store: prior sessions become
// unreachable rather than the process failing to boot.
func NewStore(path string, codec *crypto.Codec, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:     path,
		codec:    codec,
		logger:   logger.With("component", "session"),
		sessions: make(map[string]*Jar),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

// Create registers a new session with an empty jar and persists the store
// before returning the new id.
func (s *Store) Create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = NewJar()
	if err := s.persistLocked(); err != nil {
		delete(s.sessions, id)
		return "", err
	}
	s.logger.Debug("session created", "sid", id)
	return id, nil
}

// Has reports whether id names a live session.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Get returns the jar for id, or ErrNotFound.
func (s *Store) Get(id string) (*Jar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jar, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return jar, nil
}

// Delete removes the session and persists. Deleting an unknown id is a
// no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return nil
	}
	delete(s.sessions, id)
	return s.persistLocked()
}

// Save rewrites the session file. The upstream client calls this after
// every upstream round-trip because Set-Cookie processing may have rotated
// the jar contents.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) loadAll() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session file: %w", err)
	}

	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return nil
	}

	// Plain JSON is the legacy plaintext format; it is accepted even when
	// encryption is configured and re-encrypted on the next save.
	if !bytes.HasPrefix(data, []byte("{")) {
		if !s.codec.Available() {
			s.logger.Warn("session file looks encrypted but no key is configured; starting empty")
			return nil
		}
		plain, err := s.codec.Decrypt(string(data))
		if err != nil {
			s.logger.Warn("session file failed to decrypt; starting empty", "error", err)
			return nil
		}
		data = plain
	}

	sessions := make(map[string]*Jar)
	if err := json.Unmarshal(data, &sessions); err != nil {
		s.logger.Warn("session file failed to parse; starting empty", "error", err)
		return nil
	}
	for id, jar := range sessions {
		if jar == nil {
			jar = NewJar()
		}
		s.sessions[id] = jar
	}
	return nil
}

// persistLocked serializes the full map and replaces the session file via
// a temp file + rename. If encryption is configured but fails, the write
// is aborted entirely: the store never silently downgrades to plaintext.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing sessions: %w", err)
	}

	if s.codec.Available() {
		blob, err := s.codec.Encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypting session file: %w", err)
		}
		data = []byte(blob)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
