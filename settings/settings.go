// Package settings stores the UI's settings blob. The blob is opaque to
// the bridge: it is validated as JSON on write and otherwise passed
// through untouched.
package settings

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketName = []byte("settings")
	blobKey    = []byte("blob")
)

// Store is a BBolt-backed holder for the single settings document.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the settings database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening settings db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored blob, or "{}" when nothing has been stored yet.
func (s *Store) Get() (json.RawMessage, error) {
	blob := json.RawMessage("{}")
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketName).Get(blobKey); data != nil {
			blob = append(json.RawMessage(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return blob, nil
}

// Set replaces the stored blob. The blob must be valid JSON; its contents
// are not otherwise interpreted.
func (s *Store) Set(blob json.RawMessage) error {
	if !json.Valid(blob) {
		return fmt.Errorf("settings blob is not valid JSON")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(blobKey, blob)
	})
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
