// Package cache stores pipeline results under content-derived keys.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Backend is a key to bytes store.
//
// Get reports a missing key with ok == false and a nil error, so an empty
// stored value is distinguishable from absence. Set overwrites. Clear of a
// missing key is not an error.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Clear(key string) error
}

// BadgerBackend implements Backend using BadgerDB
type BadgerBackend struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerBackend opens a BadgerDB at path. Entries expire after ttl; zero
// keeps them forever.
func NewBadgerBackend(path string, ttl time.Duration) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerBackend{db: db, ttl: ttl}, nil
}

// NewInMemoryBadgerBackend opens a BadgerDB that never touches disk.
func NewInMemoryBadgerBackend() (*BadgerBackend, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// Set stores a value
func (c *BadgerBackend) Set(key string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get retrieves a value
func (c *BadgerBackend) Get(key string) ([]byte, bool, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if val == nil {
		val = []byte{}
	}
	return val, true, nil
}

// Clear removes a value
func (c *BadgerBackend) Clear(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close closes the cache
func (c *BadgerBackend) Close() error {
	return c.db.Close()
}
