// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"golang.org/x/sync/errgroup"

	"github.com/btcsuite/btcaddrindex/kvdb"
	_ "github.com/btcsuite/btcaddrindex/kvdb/bdb"
)

// Index is the top-level handle for the address index: the seed and
// bucket live in one kvdb.DB, a single background worker consumes
// ChainNotifier events, and FindByScript is served concurrently on caller
// goroutines per spec.md §5.
type Index struct {
	cfg Config
	db  kvdb.DB

	seed uint64

	clock clock.Clock

	events *queue.ConcurrentQueue
	eg     *errgroup.Group
	quit   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	started atomic.Bool

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int

	metrics *metrics
}

// New constructs an Index from cfg. The backing database is opened (or
// created, or wiped-then-created) and the fingerprint seed is loaded or
// generated, implementing the §4.B Init protocol. The index is not
// started: callers must call Start.
func New(cfg Config) (*Index, error) {
	db, err := openConfiguredDB(cfg)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		cfg:   cfg,
		db:    db,
		clock: clock.NewDefaultClock(),
		quit:  make(chan struct{}),
	}
	idx.metrics = newMetrics(cfg.Registerer)
	idx.cond = sync.NewCond(&idx.mu)

	err = kvdb.Update(db, func(tx kvdb.ReadWriteTx) error {
		seed, err := initSeed(tx, bucketName)
		if err != nil {
			return err
		}
		idx.seed = seed
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// openConfiguredDB opens cfg's configured backend. WipeOnOpen removes any
// existing database file first, forcing a fresh seed on the subsequent
// Init. InMemoryOnly opens the same bdb driver against a temp-directory
// file instead of cfg.DBPath, since the embedded store this index is
// built on has no separate in-memory mode; the file is removed when the
// index is closed, so nothing outlives the process.
func openConfiguredDB(cfg Config) (kvdb.DB, error) {
	driver := cfg.DBDriver
	if driver == "" {
		driver = "bdb"
	}

	dbPath := cfg.DBPath
	if cfg.InMemoryOnly {
		f, err := os.CreateTemp("", "addrindex-*.db")
		if err != nil {
			return nil, indexError(ErrKvStoreIo,
				"failed to create temp file for in-memory-only database", err)
		}
		dbPath = f.Name()
		f.Close()
		os.Remove(dbPath)
	}

	if cfg.WipeOnOpen && !cfg.InMemoryOnly {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, indexError(ErrKvStoreIo,
				"failed to remove existing address index database", err)
		}
	}

	db, err := kvdb.Open(driver, dbPath)
	if err == kvdb.ErrDbDoesNotExist {
		db, err = kvdb.Create(driver, dbPath)
	}
	if err != nil {
		return nil, indexError(ErrKvStoreIo,
			"failed to open address index database", err)
	}

	if cfg.InMemoryOnly {
		return &tempFileDB{DB: db, path: dbPath}, nil
	}
	return db, nil
}

// tempFileDB wraps a kvdb.DB whose backing file must be removed on Close,
// used for InMemoryOnly configurations.
type tempFileDB struct {
	kvdb.DB
	path string
}

func (t *tempFileDB) Close() error {
	err := t.DB.Close()
	os.Remove(t.path)
	return err
}

// Enabled reports whether the index has ever successfully connected a
// block against this database. A node restarted without ever having run
// the index before sees false even after Start is called, until the
// first block lands; this lets a caller distinguish a freshly initialized
// database from one that has genuinely begun indexing.
func (idx *Index) Enabled() bool {
	var enabled bool
	_ = kvdb.View(idx.db, func(tx kvdb.ReadTx) error {
		enabled = isEnabled(tx)
		return nil
	})
	return enabled
}

// BlockUntilSyncedToCurrentChain blocks until the worker has drained every
// event queued as of this call and returns true. It returns false
// immediately, without blocking, if the index has not been started.
func (idx *Index) BlockUntilSyncedToCurrentChain() bool {
	if !idx.started.Load() {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for idx.inFlight > 0 {
		idx.cond.Wait()
	}
	return true
}
