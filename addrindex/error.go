// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import "fmt"

// ErrorCode identifies a category of error that can be returned by the
// address index.
type ErrorCode int

const (
	// ErrCorruption indicates a decode failure of a key or value, a
	// missing seed after a successful Init, or a violated invariant.
	// It is non-recoverable: the index must be shut down and the
	// database wiped and resynced.
	ErrCorruption ErrorCode = iota

	// ErrBlockStoreIo indicates an open/seek/read failure while
	// materializing a transaction payload from the block store.
	ErrBlockStoreIo

	// ErrKvStoreIo indicates a commit or iterator failure against the
	// backing key/value store.
	ErrKvStoreIo

	// ErrNotSynced indicates the index has not yet processed every
	// block up to the chain tip observed at some past call. It is a
	// status, not a failure: queries still return whatever is present.
	ErrNotSynced

	// ErrShutdown indicates the worker is exiting cooperatively in
	// response to a Stop call.
	ErrShutdown
)

// errorCodeStrings is a map of the error codes back to their names.
var errorCodeStrings = map[ErrorCode]string{
	ErrCorruption:   "ErrCorruption",
	ErrBlockStoreIo: "ErrBlockStoreIo",
	ErrKvStoreIo:    "ErrKvStoreIo",
	ErrNotSynced:    "ErrNotSynced",
	ErrShutdown:     "ErrShutdown",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error provides a single type for errors that can occur during address
// index operation. It has full support for errors.Is and errors.As, so
// callers can test for a specific ErrorCode or unwrap to the underlying
// cause.
type Error struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

// Error satisfies the error interface.
func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying wrapped error, if any, allowing
// errors.Is/errors.As to see through to the cause.
func (e Error) Unwrap() error {
	return e.Err
}

// indexError creates an Error given a set of arguments.
func indexError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}
