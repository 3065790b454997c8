// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrindextest provides in-memory fakes for the collaborator
// interfaces addrindex consumes (ChainNotifier, BlockStore, CoinsView),
// so the core package's tests can drive connect/disconnect/query without
// a real chain, block store or UTXO set.
package addrindextest

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/btcaddrindex/addrindex"
)

// Notifier is a single-subscriber fake ChainNotifier. Tests call
// Connect/Disconnect directly to drive the index under test; there is no
// background goroutine of its own.
type Notifier struct {
	mu           sync.Mutex
	onConnect    func(*addrindex.BlockEvent)
	onDisconnect func(*addrindex.DisconnectEvent)
}

func (n *Notifier) Subscribe(
	onConnect func(*addrindex.BlockEvent),
	onDisconnect func(*addrindex.DisconnectEvent),
) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onConnect = onConnect
	n.onDisconnect = onDisconnect
	return nil
}

// Connect delivers a BlockConnected event to the subscriber, if any.
func (n *Notifier) Connect(ev *addrindex.BlockEvent) {
	n.mu.Lock()
	cb := n.onConnect
	n.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// Disconnect delivers a BlockDisconnected event to the subscriber, if any.
func (n *Notifier) Disconnect(ev *addrindex.DisconnectEvent) {
	n.mu.Lock()
	cb := n.onDisconnect
	n.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// BlockStore is an in-memory fake BlockStore. Blocks are appended to a
// single growing buffer keyed by a synthetic file id, in the exact layout
// connect_block assumes: header, then compact-size tx count, then each
// transaction's raw bytes back to back.
type BlockStore struct {
	mu    sync.Mutex
	files map[uint32][]byte
	undo  map[chainhash.Hash]*addrindex.BlockUndo
}

func NewBlockStore() *BlockStore {
	return &BlockStore{
		files: make(map[uint32][]byte),
		undo:  make(map[chainhash.Hash]*addrindex.BlockUndo),
	}
}

// AddBlock serializes block into file fileID at the given byte offset and
// records undo for later retrieval. It returns the DiskTxPos a real
// ChainNotifier would hand to connect_block for this block: BlockOffset
// set to offset, TxOffset left zero (the index fills it in per-tx).
func (s *BlockStore) AddBlock(
	fileID uint32,
	offset uint32,
	block *wire.MsgBlock,
	undo *addrindex.BlockUndo,
) (addrindex.DiskTxPos, error) {

	var buf bytes.Buffer
	if err := block.Header.Serialize(&buf); err != nil {
		return addrindex.DiskTxPos{}, err
	}
	if err := wire.WriteVarInt(&buf, 0, uint64(len(block.Transactions))); err != nil {
		return addrindex.DiskTxPos{}, err
	}
	for _, tx := range block.Transactions {
		if err := tx.Serialize(&buf); err != nil {
			return addrindex.DiskTxPos{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.files[fileID]
	for uint32(len(existing)) < offset {
		existing = append(existing, 0)
	}
	s.files[fileID] = append(existing[:offset], buf.Bytes()...)
	s.undo[block.Header.BlockHash()] = undo

	return addrindex.DiskTxPos{BlockFileID: fileID, BlockOffset: offset}, nil
}

func (s *BlockStore) OpenBlockFile(pos addrindex.DiskTxPos) (io.ReadSeekCloser, error) {
	s.mu.Lock()
	data, ok := s.files[pos.BlockFileID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no such block file %d", pos.BlockFileID)
	}
	if int(pos.BlockOffset) > len(data) {
		return nil, fmt.Errorf("block offset %d past end of file %d", pos.BlockOffset, pos.BlockFileID)
	}
	return &fakeBlockFile{r: bytes.NewReader(data[pos.BlockOffset:])}, nil
}

func (s *BlockStore) ReadBlockUndo(hash chainhash.Hash) (*addrindex.BlockUndo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.undo[hash]
	if !ok {
		return nil, fmt.Errorf("no undo record for block %s", hash)
	}
	return u, nil
}

// fakeBlockFile adapts a bytes.Reader to io.ReadSeekCloser.
type fakeBlockFile struct {
	r *bytes.Reader
}

func (f *fakeBlockFile) Read(p []byte) (int, error)                { return f.r.Read(p) }
func (f *fakeBlockFile) Seek(off int64, whence int) (int64, error) { return f.r.Seek(off, whence) }
func (f *fakeBlockFile) Close() error                              { return nil }

// CoinsView is an in-memory fake CoinsView backed by a plain map, mutated
// directly by tests to model the current UTXO set.
type CoinsView struct {
	mu    sync.Mutex
	coins map[wire.OutPoint]*addrindex.Coin
}

func NewCoinsView() *CoinsView {
	return &CoinsView{coins: make(map[wire.OutPoint]*addrindex.Coin)}
}

func (c *CoinsView) Add(out wire.OutPoint, coin *addrindex.Coin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coins[out] = coin
}

func (c *CoinsView) Remove(out wire.OutPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.coins, out)
}

func (c *CoinsView) GetCoin(out wire.OutPoint) (*addrindex.Coin, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coin, ok := c.coins[out]
	return coin, ok, nil
}
