// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bdb

import (
	"io"
	"os"

	"go.etcd.io/bbolt"

	"github.com/btcsuite/btcaddrindex/kvdb"
)

// convertErr converts some bolt errors to the equivalent kvdb error.
func convertErr(err error) error {
	switch err {
	case bbolt.ErrDatabaseNotOpen:
		return kvdb.ErrDbNotOpen
	case bbolt.ErrInvalid:
		return kvdb.ErrInvalid
	case bbolt.ErrTxNotWritable:
		return kvdb.ErrTxNotWritable
	case bbolt.ErrTxClosed:
		return kvdb.ErrTxClosed
	case bbolt.ErrBucketNotFound:
		return kvdb.ErrBucketNotFound
	case bbolt.ErrBucketExists:
		return kvdb.ErrBucketExists
	case bbolt.ErrBucketNameRequired:
		return kvdb.ErrBucketNameRequired
	case bbolt.ErrKeyRequired:
		return kvdb.ErrKeyRequired
	case bbolt.ErrKeyTooLarge:
		return kvdb.ErrKeyTooLarge
	case bbolt.ErrValueTooLarge:
		return kvdb.ErrValueTooLarge
	case bbolt.ErrIncompatibleValue:
		return kvdb.ErrIncompatibleValue
	}
	return err
}

// transaction implements kvdb.ReadTx and kvdb.ReadWriteTx atop a bolt
// transaction.
type transaction struct {
	boltTx *bbolt.Tx
}

func (tx *transaction) ReadBucket(key []byte) kvdb.ReadBucket {
	return tx.ReadWriteBucket(key)
}

func (tx *transaction) ReadWriteBucket(key []byte) kvdb.ReadWriteBucket {
	boltBucket := tx.boltTx.Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return (*bucket)(boltBucket)
}

func (tx *transaction) CreateTopLevelBucket(key []byte) (kvdb.ReadWriteBucket, error) {
	boltBucket, err := tx.boltTx.CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (tx *transaction) DeleteTopLevelBucket(key []byte) error {
	return convertErr(tx.boltTx.DeleteBucket(key))
}

func (tx *transaction) Commit() error {
	return convertErr(tx.boltTx.Commit())
}

func (tx *transaction) Rollback() error {
	return convertErr(tx.boltTx.Rollback())
}

// bucket implements kvdb.ReadWriteBucket atop a bolt bucket.
type bucket bbolt.Bucket

var _ kvdb.ReadWriteBucket = (*bucket)(nil)

func (b *bucket) NestedReadBucket(key []byte) kvdb.ReadBucket {
	return b.NestedReadWriteBucket(key)
}

func (b *bucket) NestedReadWriteBucket(key []byte) kvdb.ReadWriteBucket {
	boltBucket := (*bbolt.Bucket)(b).Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return (*bucket)(boltBucket)
}

func (b *bucket) CreateBucket(key []byte) (kvdb.ReadWriteBucket, error) {
	boltBucket, err := (*bbolt.Bucket)(b).CreateBucket(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (b *bucket) CreateBucketIfNotExists(key []byte) (kvdb.ReadWriteBucket, error) {
	boltBucket, err := (*bbolt.Bucket)(b).CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*bucket)(boltBucket), nil
}

func (b *bucket) DeleteNestedBucket(key []byte) error {
	return convertErr((*bbolt.Bucket)(b).DeleteBucket(key))
}

func (b *bucket) ForEach(fn func(k, v []byte) error) error {
	return convertErr((*bbolt.Bucket)(b).ForEach(fn))
}

func (b *bucket) Put(key, value []byte) error {
	return convertErr((*bbolt.Bucket)(b).Put(key, value))
}

func (b *bucket) Get(key []byte) []byte {
	return (*bbolt.Bucket)(b).Get(key)
}

func (b *bucket) Delete(key []byte) error {
	return convertErr((*bbolt.Bucket)(b).Delete(key))
}

func (b *bucket) ReadCursor() kvdb.ReadCursor {
	return b.ReadWriteCursor()
}

func (b *bucket) ReadWriteCursor() kvdb.ReadWriteCursor {
	return (*cursor)((*bbolt.Bucket)(b).Cursor())
}

// cursor implements kvdb.ReadWriteCursor atop a bolt cursor.
type cursor bbolt.Cursor

func (c *cursor) Delete() error {
	return convertErr((*bbolt.Cursor)(c).Delete())
}

func (c *cursor) First() (key, value []byte) {
	return (*bbolt.Cursor)(c).First()
}

func (c *cursor) Last() (key, value []byte) {
	return (*bbolt.Cursor)(c).Last()
}

func (c *cursor) Next() (key, value []byte) {
	return (*bbolt.Cursor)(c).Next()
}

func (c *cursor) Prev() (key, value []byte) {
	return (*bbolt.Cursor)(c).Prev()
}

func (c *cursor) Seek(seek []byte) (key, value []byte) {
	return (*bbolt.Cursor)(c).Seek(seek)
}

// db implements kvdb.DB atop a bolt database handle.
type db bbolt.DB

var _ kvdb.DB = (*db)(nil)

func (db *db) beginTx(writable bool) (*transaction, error) {
	boltTx, err := (*bbolt.DB)(db).Begin(writable)
	if err != nil {
		return nil, convertErr(err)
	}
	return &transaction{boltTx: boltTx}, nil
}

func (db *db) BeginReadTx() (kvdb.ReadTx, error) {
	return db.beginTx(false)
}

func (db *db) BeginReadWriteTx() (kvdb.ReadWriteTx, error) {
	return db.beginTx(true)
}

func (db *db) Copy(w io.Writer) error {
	return convertErr((*bbolt.DB)(db).View(func(tx *bbolt.Tx) error {
		return tx.Copy(w)
	}))
}

func (db *db) Close() error {
	return convertErr((*bbolt.DB)(db).Close())
}

func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// openDB opens (or creates) the bolt-backed database at dbPath.
// kvdb.ErrDbDoesNotExist is returned if the database doesn't exist and
// create is false.
func openDB(dbPath string, create bool) (kvdb.DB, error) {
	if !create && !fileExists(dbPath) {
		return nil, kvdb.ErrDbDoesNotExist
	}

	boltDB, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*db)(boltDB), nil
}
