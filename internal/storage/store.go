// Package storage provides a byte-ordered, keyed store over bbolt with
// three logical families: secrets (overwritable, point-get), data
// (overwritable, supports prefix-max/prefix-scan), and log (write-once,
// supports point-get, prefix-max, and forward range-from-key).
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("storage: not found")

// Family names a top-level bbolt bucket.
type Family string

const (
	FamilySecrets Family = "secrets"
	FamilyData    Family = "data"
	FamilyLog     Family = "log"
)

var allFamilies = []Family{FamilySecrets, FamilyData, FamilyLog}

// Store is an ordered byte-key record store backed by bbolt.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a bbolt database at path, ensuring all families exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, f := range allFamilies {
			if _, err := tx.CreateBucketIfNotExists([]byte(f)); err != nil {
				return fmt.Errorf("create bucket %s: %w", f, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put marshals v as JSON and writes it under key in family. Overwrites any
// existing value — callers in the log family are expected never to reuse a
// key (write-once by convention of the id allocators above this layer).
func (s *Store) Put(family Family, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", family, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(family)).Put(key, data)
	})
}

// Get reads the value under key in family and unmarshals it into out.
// Returns ErrNotFound if the key is absent.
func (s *Store) Get(family Family, key []byte, out any) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(family)).Get(key)
		if v == nil {
			return ErrNotFound
		}
		data = append(data, v...)
		return nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// MaxUnderPrefix returns the value stored under the lexicographically
// largest key with the given prefix, or ErrNotFound if none exists. Walks
// forward from prefix keeping the last matching value, mirroring the
// original implementation's collect-last-prefixed-value scan.
func (s *Store) MaxUnderPrefix(family Family, prefix []byte, out any) error {
	var data []byte
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(family)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			data = append(data[:0], v...)
			found = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func decodeJSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// ScanPrefix invokes fn for every record whose key has the given prefix, in
// ascending key order. decode is called once per record to unmarshal it
// into a fresh value which is then passed to fn.
func (s *Store) ScanPrefix(family Family, prefix []byte, decode func([]byte) (any, error), fn func(any) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(family)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			item, err := decode(v)
			if err != nil {
				return err
			}
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// RangeFrom reads up to size records starting at start (inclusive) within
// the given prefix, in ascending key order.
func (s *Store) RangeFrom(family Family, prefix, start []byte, size int, decode func([]byte) (any, error), fn func(any) error) error {
	if size <= 0 {
		return nil
	}
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(family)).Cursor()
		n := 0
		for k, v := c.Seek(start); k != nil && bytes.HasPrefix(k, prefix) && n < size; k, v = c.Next() {
			item, err := decode(v)
			if err != nil {
				return err
			}
			if err := fn(item); err != nil {
				return err
			}
			n++
		}
		return nil
	})
}

