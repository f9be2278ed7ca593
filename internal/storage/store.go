package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var preferencesBucket = []byte("preferences")

// ErrEmptyKey is returned when no application key was configured.
var ErrEmptyKey = errors.New("application key cannot be empty")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(preferencesBucket)
		return createErr
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadPreferences returns the preferences saved under appKey, or empty
// preferences when nothing was saved yet.
func (s *Store) LoadPreferences(appKey string) (*Preferences, error) {
	if appKey == "" {
		return nil, ErrEmptyKey
	}
	prefs := &Preferences{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(preferencesBucket).Get([]byte(appKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, prefs)
	})
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences overwrites the preferences stored under appKey.
func (s *Store) SavePreferences(appKey string, prefs *Preferences) error {
	if appKey == "" {
		return ErrEmptyKey
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(prefs)
		if err != nil {
			return err
		}
		return tx.Bucket(preferencesBucket).Put([]byte(appKey), data)
	})
}
