// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// AddrId is a lossy fingerprint of a pubkey script. It is the primary
// discriminator inside index keys and is never treated as authoritative
// identity: every lookup re-verifies by comparing the stored script
// byte-for-byte against the queried script.
//
// 32 bits is wide enough to keep keys compact while making accidental
// collisions rare (~1 expected collision per ~4*10^9 distinct scripts);
// see the Hash width note in SPEC_FULL.md.
type AddrId uint32

// Outpoint identifies a specific transaction output, exactly as defined by
// the chain protocol.
type Outpoint = wire.OutPoint

// EntryKind is the single-byte discriminator that distinguishes why an
// IndexEntry was written.
type EntryKind byte

const (
	// EntrySeed marks the singleton seed record. It never appears in a
	// full (AddrId, kind, outpoint) key.
	EntrySeed EntryKind = 0x00

	// EntryEnabled marks the singleton record that remembers whether the
	// index has ever completed connecting its first block.
	EntryEnabled EntryKind = 0x01

	// EntryCreated marks an entry recording that an outpoint was an
	// output of the transaction at DiskTxPos.
	EntryCreated EntryKind = 'c'

	// EntrySpent marks an entry recording that an outpoint was consumed
	// as an input of the transaction at DiskTxPos.
	EntrySpent EntryKind = 's'
)

// DiskTxPos locates a serialized transaction inside the block-store files:
// which block file it lives in, the byte offset of the block within that
// file, and the byte offset of the transaction within the block.
type DiskTxPos struct {
	BlockFileID uint32
	BlockOffset uint32
	TxOffset    uint32
}

// IndexEntry is the unit written to and read from the key/value store.
type IndexEntry struct {
	AddrId AddrId
	Kind   EntryKind
	Out    Outpoint
	Pos    DiskTxPos
	Script []byte
}

// PrevOut is the prior output consumed by one transaction input, as
// recovered from either block undo data or the UTXO view.
type PrevOut struct {
	Script []byte
	Value  int64
}

// TxUndo is the per-transaction undo record: the prior outputs consumed by
// each of its non-coinbase inputs, in input order.
type TxUndo struct {
	PrevOut []PrevOut
}

// BlockUndo is the per-block undo record, ordered to mirror
// block.Transactions[1:] (the coinbase has no undo entry).
type BlockUndo struct {
	TxUndo []TxUndo
}

// Coin is a single unspent output as reported by a CoinsView.
type Coin struct {
	Script []byte
	Value  int64
}

// BlockEvent is delivered by a ChainNotifier when a block becomes part of
// the best chain.
type BlockEvent struct {
	Block  *wire.MsgBlock
	Undo   *BlockUndo
	Pos    DiskTxPos
	Height int32
}

// DisconnectEvent is delivered by a ChainNotifier when a block is removed
// from the best chain. No undo record is carried: disconnect recovers
// spent-output scripts through the CoinsView collaborator instead. Pos is
// the on-disk position the block was connected under; the block store
// retains the block file across a reorg, so it remains the discriminator
// used to recognize which entries belong to the disconnecting block.
type DisconnectEvent struct {
	Block  *wire.MsgBlock
	Pos    DiskTxPos
	Height int32
}

// Match is one element of a find_by_script result: the outpoint involved,
// the reconstructed transaction, and the hash of the block it came from.
type Match struct {
	Out       Outpoint
	Tx        *wire.MsgTx
	BlockHash chainhash.Hash
}
