// Package store persists the outputs of finished protocol executions in a bbolt database.
// Values are encoded with cbor.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const (
	FileName = "cmp-ia.db"
	OpenPerm = 0600
	DirPerm  = 0700
)

// Buckets used by the CLI.
var (
	KeySharesBucket = []byte("key_shares")
	AuxInfoBucket   = []byte("aux_info")
	EvidenceBucket  = []byte("evidence")
	SignatureBucket = []byte("signatures")
)

var ErrNotFound = errors.New("store: not found")

// Store is a set of cbor encoded values, grouped in buckets.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database in folder.
func Open(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, DirPerm); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(folder, FileName), OpenPerm, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{KeySharesBucket, AuxInfoBucket, EvidenceBucket, SignatureBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put encodes v and saves it under key in bucket, replacing any previous value.
func (s *Store) Put(bucket []byte, key string, v interface{}) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: failed to encode %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value saved under key in bucket into v.
// It returns ErrNotFound if there is none.
func (s *Store) Get(bucket []byte, key string, v interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
		}
		if err := cbor.Unmarshal(data, v); err != nil {
			return fmt.Errorf("store: failed to decode %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}

// Delete removes key from bucket.
func (s *Store) Delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Keys returns the sorted keys of bucket.
func (s *Store) Keys(bucket []byte) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}
