package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketAuth = []byte("auth")

// lockTimeout bounds how long an operation waits for another process
// holding the database.
const lockTimeout = 2 * time.Second

// BoltKV implements KV using BoltDB. The database is opened for each
// operation and closed right after, so the file lock is never held while
// a command waits on the network.
type BoltKV struct {
	path string
}

// NewBoltKV returns a store at path. The file is created with mode 0600
// on the first write.
func NewBoltKV(path string) *BoltKV {
	return &BoltKV{path: path}
}

func (s *BoltKV) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: lockTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return db, nil
}

// Get implements KV. A missing file reads as a missing key.
func (s *BoltKV) Get(key string) (string, bool, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	db, err := s.open(true)
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	var value string
	var found bool
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction
		value = string(data)
		found = true
		return nil
	})
	return value, found, err
}

// Put implements KV.
func (s *BoltKV) Put(key, value string) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), []byte(value))
	})
}

// Delete implements KV. Deleting a missing key is not an error.
func (s *BoltKV) Delete(key string) error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(key))
	})
}

func (s *BoltKV) update(fn func(b *bolt.Bucket) error) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketAuth)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketAuth, err)
		}
		return fn(b)
	})
}
