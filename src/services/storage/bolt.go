package storage

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"termchat/src/models"
)

var settingsBucket = []byte("settings")

// BoltStore persists keys in a single-bucket bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens the bolt file at path, creating it and its directory if
// needed. A short lock timeout keeps a second running instance from
// hanging forever on the file lock.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &models.StorageError{Message: "create state directory", Err: err}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, &models.StorageError{Message: "open state file", Err: err}
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, &models.StorageError{Message: "prepare state file", Err: err}
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(settingsBucket).Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, &models.StorageError{Message: "read " + key, Err: err}
	}
	return value, found, nil
}

func (s *BoltStore) Put(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return &models.StorageError{Message: "write " + key, Err: err}
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
