// Package boltexport copies records between a slotdb store and a Bolt bucket.
// Values are stored with the store's codec, one Bolt key per record.
package boltexport

import (
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/slotdb"
)

var ErrBucketNotFound = errors.New("bucket not found")

// Open opens (or creates) a Bolt file, giving up after a second if another
// process holds it.
func Open(path string) (*bbolt.DB, error) {
	return bbolt.Open(path, 0o666, &bbolt.Options{Timeout: time.Second})
}

// Export writes every present record of s into bucket, replacing existing
// keys, in a single transaction. It returns the number of records written.
func Export[T any](s *slotdb.Store[T], db *bbolt.DB, bucket string) (int, error) {
	codec := s.Codec()
	entries := s.Entries()
	err := db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		for _, ent := range entries {
			raw, err := codec.Marshal(ent.Value)
			if err != nil {
				return err
			}
			err = b.Put([]byte(ent.Key), raw)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Import decodes every value in bucket with the store's codec and sets it.
// Records are read in a single read transaction, then applied to s.
func Import[T any](db *bbolt.DB, bucket string, s *slotdb.Store[T]) (int, error) {
	codec := s.Codec()
	var keys []string
	var values []T
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		return b.ForEach(func(k, v []byte) error {
			if v == nil {
				return nil // nested bucket
			}
			var value T
			err := codec.Unmarshal(v, &value)
			if err != nil {
				return &slotdb.DataError{Data: append([]byte(nil), v...), Err: err, Msg: "bolt key " + string(k)}
			}
			keys = append(keys, string(k))
			values = append(values, value)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		s.Set(k, values[i])
	}
	return len(keys), nil
}
