// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import "github.com/prometheus/client_golang/prometheus"

// Config bundles everything needed to construct an Index. The host process
// (a wallet, a full node, a block explorer) is expected to populate it from
// whatever configuration surface it already has; this package exposes no
// flag or RPC layer of its own.
type Config struct {
	// DBDriver names the registered kvdb driver to use, e.g. "bdb".
	DBDriver string

	// DBPath is the path passed to the driver's Open/Create.
	DBPath string

	// CacheBytes is carried for the caller's page-cache size setting. It
	// is not passed to the backing store: the bdb driver takes only a
	// path, so any value here has no effect.
	CacheBytes uint64

	// InMemoryOnly, when true, never persists the index to DBPath;
	// intended for tests and ephemeral nodes.
	InMemoryOnly bool

	// WipeOnOpen, when true, discards any existing database at DBPath
	// before opening, forcing a fresh seed and a full resync.
	WipeOnOpen bool

	// Notifier supplies BlockConnected/BlockDisconnected events.
	Notifier ChainNotifier

	// Blocks materializes transaction payloads and undo records.
	Blocks BlockStore

	// Coins is consulted only during disconnects for which no undo
	// record is available.
	Coins CoinsView

	// Registerer, if non-nil, receives the index's prometheus metrics.
	// Left nil, metrics collection is a no-op.
	Registerer prometheus.Registerer
}
