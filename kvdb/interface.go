// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// This interface was inspired heavily by the excellent boltdb project at
// https://github.com/boltdb/bolt by Ben B. Johnson.

// Package kvdb defines the interfaces that the address index uses to talk to
// its backing ordered key/value store.  It intentionally exposes nothing
// beyond what a prefix-scanning, atomically-batched, snapshot-isolated store
// can provide: nested buckets, range-ordered byte keys and a cursor that can
// seek to an arbitrary prefix.
package kvdb

import "io"

// ReadCursor iterates a bucket's key/value pairs in byte order without
// mutating them.
type ReadCursor interface {
	// First positions the cursor at the first key/value pair and returns
	// the pair.
	First() (key, value []byte)

	// Last positions the cursor at the last key/value pair and returns
	// the pair.
	Last() (key, value []byte)

	// Next moves the cursor one key/value pair forward and returns the
	// new pair.
	Next() (key, value []byte)

	// Prev moves the cursor one key/value pair backward and returns the
	// new pair.
	Prev() (key, value []byte)

	// Seek positions the cursor at the passed seek key.  If the key does
	// not exist, the cursor is moved to the next key after seek.  Returns
	// the new pair.
	Seek(seek []byte) (key, value []byte)
}

// ReadWriteCursor extends ReadCursor with the ability to delete the entry it
// currently points at, without invalidating the cursor's position.
type ReadWriteCursor interface {
	ReadCursor

	// Delete removes the current key/value pair the cursor is positioned
	// at.  It is an error to call Delete when the cursor points at a
	// nested bucket.
	Delete() error
}

// ReadBucket is a read-only handle to a collection of key/value pairs and
// nested buckets.
type ReadBucket interface {
	// NestedReadBucket retrieves a nested bucket with the given key.
	// Returns nil if the bucket does not exist.
	NestedReadBucket(key []byte) ReadBucket

	// ForEach invokes the passed function with every key/value pair in
	// the bucket.  Nested buckets are visited with a nil value.
	//
	// The slices passed to fn are only valid for the lifetime of the
	// call; they must be copied to be retained.
	ForEach(fn func(k, v []byte) error) error

	// Get returns the value for the given key, or nil if it does not
	// exist.  The returned slice is only valid for the lifetime of the
	// enclosing transaction.
	Get(key []byte) []byte

	// ReadCursor returns a cursor over this bucket's key/value pairs.
	ReadCursor() ReadCursor
}

// ReadWriteBucket extends ReadBucket with mutation and nested-bucket
// management.
type ReadWriteBucket interface {
	ReadBucket

	// NestedReadWriteBucket retrieves a writable nested bucket with the
	// given key.  Returns nil if the bucket does not exist.
	NestedReadWriteBucket(key []byte) ReadWriteBucket

	// CreateBucket creates and returns a new nested bucket with the
	// given key.  Returns an error if the bucket already exists or the
	// key is empty.
	CreateBucket(key []byte) (ReadWriteBucket, error)

	// CreateBucketIfNotExists creates and returns the nested bucket with
	// the given key, creating it first if necessary.
	CreateBucketIfNotExists(key []byte) (ReadWriteBucket, error)

	// DeleteNestedBucket removes a nested bucket with the given key.
	DeleteNestedBucket(key []byte) error

	// Put saves the key/value pair to the bucket, overwriting any
	// existing value.
	Put(key, value []byte) error

	// Delete removes the specified key.  Deleting a key that does not
	// exist is not an error.
	Delete(key []byte) error

	// ReadWriteCursor returns a mutating cursor over this bucket.
	ReadWriteCursor() ReadWriteCursor
}

// ReadTx represents a read-only, snapshot-isolated view of the database.
// Every ReadBucket obtained from the same ReadTx observes the same point in
// time, regardless of writes committed by other transactions afterward.
type ReadTx interface {
	// ReadBucket opens the top-level bucket with the given key for
	// reading.  Returns nil if it does not exist.
	ReadBucket(key []byte) ReadBucket

	// Rollback closes the transaction, releasing the snapshot it was
	// reading from.  It is the caller's responsibility to call Rollback
	// on every ReadTx once it is no longer needed.
	Rollback() error
}

// ReadWriteTx represents a single read-write transaction.  Only one may be
// open against a database at a time; readers are never blocked by it.
type ReadWriteTx interface {
	ReadTx

	// ReadWriteBucket opens the top-level bucket with the given key for
	// writing.  Returns nil if it does not exist.
	ReadWriteBucket(key []byte) ReadWriteBucket

	// CreateTopLevelBucket creates the top-level bucket with the given
	// key if it does not already exist and returns it.
	CreateTopLevelBucket(key []byte) (ReadWriteBucket, error)

	// DeleteTopLevelBucket deletes the top-level bucket with the given
	// key.  Returns an error if the bucket does not exist.
	DeleteTopLevelBucket(key []byte) error

	// Commit commits everything written through this transaction to
	// persistent storage.
	Commit() error
}

// DB is a handle to an opened, ordered key/value database that supports
// atomic read-write transactions (batches) and concurrent, snapshot-isolated
// readers.
type DB interface {
	// BeginReadTx starts a read-only transaction.
	BeginReadTx() (ReadTx, error)

	// BeginReadWriteTx starts a read-write transaction.  Starting a
	// second one while the first is still open blocks until it is
	// committed or rolled back.
	BeginReadWriteTx() (ReadWriteTx, error)

	// Copy writes a backup of the database to w using a read-only
	// transaction.
	Copy(w io.Writer) error

	// Close flushes and closes the database.
	Close() error
}

// View opens a managed read-only transaction, invoking fn with it and always
// rolling it back afterward.  Errors from fn are propagated to the caller.
func View(db DB, fn func(tx ReadTx) error) error {
	tx, err := db.BeginReadTx()
	if err != nil {
		return err
	}
	err = fn(tx)
	rbErr := tx.Rollback()
	if err != nil {
		return err
	}
	return rbErr
}

// Update opens a managed read-write transaction, invoking fn with it.  If fn
// returns a nil error the transaction is committed; otherwise it is rolled
// back and fn's error is returned.  This is the only way a caller commits an
// atomic batch of writes.
func Update(db DB, fn func(tx ReadWriteTx) error) error {
	tx, err := db.BeginReadWriteTx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Driver defines the registration hook a concrete backend uses to make
// itself available through Open/Create.
type Driver struct {
	// DbType uniquely identifies the backend, e.g. "bdb".
	DbType string

	// Create creates and opens a new database.
	Create func(args ...interface{}) (DB, error)

	// Open opens an existing database.
	Open func(args ...interface{}) (DB, error)
}

var drivers = make(map[string]*Driver)

// RegisterDriver makes a backend available via Open/Create.  It is typically
// called from a driver package's init function.
func RegisterDriver(driver Driver) error {
	if _, exists := drivers[driver.DbType]; exists {
		return ErrDbTypeRegistered
	}
	drivers[driver.DbType] = &driver
	return nil
}

// Create creates a new database of the given registered type.
func Create(dbType string, args ...interface{}) (DB, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, ErrDbUnknownType
	}
	return drv.Create(args...)
}

// Open opens an existing database of the given registered type.
func Open(dbType string, args ...interface{}) (DB, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, ErrDbUnknownType
	}
	return drv.Open(args...)
}
