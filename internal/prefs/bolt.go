package prefs

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPreferences = []byte("preferences")

// BoltStore keeps preferences in a single bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the preference file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open preference file %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPreferences)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize preference bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPreferences).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bolt values are only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

// Put stores value under key.
func (s *BoltStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferences).Put([]byte(key), value)
	})
}

// Delete removes key.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferences).Delete([]byte(key))
	})
}

// Close releases the file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
