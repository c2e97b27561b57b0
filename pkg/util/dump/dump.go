// Package dump stores copies of storage objects in a BoltDB file.
package dump

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

// Bucket is a name of the bucket holding objects.
const Bucket = "objects"

// DB is a BoltDB file with objects keyed by 8-byte big-endian ID. It is safe
// for concurrent use.
type DB struct {
	db *bbolt.DB
}

var bucket = []byte(Bucket)

// Open opens or creates the dump file at path with 0o600 rights.
func Open(path string, readOnly bool) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("can't open bbolt at %s: %w", path, err)
	}

	return &DB{db: db}, nil
}

// Key returns database key of the object with the given ID.
func Key(id int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

// PutBatch saves objects in a single transaction. Nil payloads are skipped,
// the number of saved objects is returned.
func (d *DB) PutBatch(ids []int64, data [][]byte) (int, error) {
	var n int

	err := d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return fmt.Errorf("can't create objects bucket: %w", err)
		}

		n = 0
		for i := range ids {
			if data[i] == nil {
				continue
			}
			if err := b.Put(Key(ids[i]), data[i]); err != nil {
				return fmt.Errorf("can't put object %d: %w", ids[i], err)
			}
			n++
		}
		return nil
	})

	return n, err
}

// looks up for value by key and passes it into the handler. Nil
// corresponds to missing value.
//
// Handler MUST NOT retain passed []byte, make a copy if needed.
func (d *DB) lookup(k []byte, f func(v []byte) error) error {
	return d.db.View(func(tx *bbolt.Tx) error {
		var v []byte

		b := tx.Bucket(bucket)
		if b != nil {
			v = b.Get(k)
		}

		return f(v)
	})
}

// Get returns payload of the object with the given ID or nil if it is
// missing.
func (d *DB) Get(id int64) (res []byte, err error) {
	err = d.lookup(Key(id), func(v []byte) error {
		if v != nil {
			res = bytes.Clone(v)
		}
		return nil
	})

	return
}

// Count returns the number of objects in the dump.
func (d *DB) Count() (int, error) {
	var n int

	err := d.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})

	return n, err
}

// Close closes the database file.
func (d *DB) Close() error {
	return d.db.Close()
}
