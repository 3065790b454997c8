// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChainNotifier is the single-consumer, in-order event source for best-
// chain membership changes. The index is the sole subscriber; it never
// calls back into the chain subsystem.
type ChainNotifier interface {
	// Subscribe registers the index's callbacks. onConnect fires once
	// per block as it joins the best chain; onDisconnect fires once per
	// block as it leaves it. Events are delivered strictly in the order
	// the chain subsystem applies them.
	Subscribe(
		onConnect func(*BlockEvent),
		onDisconnect func(*DisconnectEvent),
	) error
}

// BlockStore is consulted to materialize transaction payloads located by a
// DiskTxPos. It also serves a block's undo record by hash; connectBlock
// itself takes undo data from BlockEvent.Undo and does not call
// ReadBlockUndo.
type BlockStore interface {
	// OpenBlockFile returns a stream already positioned at the start of
	// the block named by pos (file pos.BlockFileID, offset
	// pos.BlockOffset). The caller deserializes the header from there
	// and seeks forward by pos.TxOffset, which is itself measured from
	// the block's own start, to reach a specific transaction.
	OpenBlockFile(pos DiskTxPos) (io.ReadSeekCloser, error)

	// ReadBlockUndo returns the undo record for the block identified by
	// hash.
	ReadBlockUndo(hash chainhash.Hash) (*BlockUndo, error)
}

// CoinsView is the UTXO-view fallback used only during disconnect, to
// recover the scripts of outputs spent by a block being removed from the
// best chain when no undo record is available for that direction.
type CoinsView interface {
	// GetCoin returns the coin at out, if it is currently unspent. ok is
	// false if the output is unknown to the view (already spent, or
	// never existed from this view's perspective).
	GetCoin(out Outpoint) (coin *Coin, ok bool, err error)
}
