// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/btcaddrindex/kvdb"
)

// bucketName is the single top-level bucket every address-index record
// lives in, keyed on table tag 'a' within it per the §4.A codec.
var bucketName = []byte("addrindex")

// blockHeaderSize is the wire size of a block header.
const blockHeaderSize = 80

// debugAssertions gates the best-effort duplicate-write check carried over
// from the original implementation's CHECK that addrindex never silently
// overwrites an existing key with a different value. It defaults off: the
// hot connect path must not pay for an extra read before every write.
var debugAssertions = false

// connectBlock implements spec.md §4.C connect_block: translate a block
// and its undo record into CREATED/SPENT entries and commit them as one
// atomic batch alongside the rest of ev's bookkeeping.
func (idx *Index) connectBlock(ev *BlockEvent) error {
	entries, err := idx.buildConnectEntries(ev)
	if err != nil {
		return err
	}

	return kvdb.Update(idx.db, func(tx kvdb.ReadWriteTx) error {
		b := tx.ReadWriteBucket(bucketName)
		if b == nil {
			return indexError(ErrCorruption,
				"address index bucket missing at connect time", nil)
		}

		for _, e := range entries {
			key := encodeKey(e.AddrId, e.Kind, e.Out)
			val := encodeValue(e.Pos, e.Script)

			if debugAssertions {
				if existing := b.Get(key); existing != nil &&
					!bytes.Equal(existing, val) {

					return indexError(ErrCorruption,
						"connect_block would overwrite an existing entry with a different value", nil)
				}
			}

			if err := b.Put(key, val); err != nil {
				return indexError(ErrKvStoreIo,
					"failed to write address index entry", err)
			}
		}

		return markEnabled(tx)
	})
}

// buildConnectEntries runs the pure, testable half of connect_block: it
// walks the block and undo record and produces every CREATED/SPENT entry
// that connectBlock must then write atomically. currentPos.TxOffset starts
// at the first transaction inside the block file (the block header plus
// the compact-size count of transactions, both measured from the block's
// own start, ev.Pos.BlockOffset) and is advanced by each transaction's
// serialized size, per §4.C step 1/2c. BlockOffset itself never changes:
// it names where the block starts within its file, as set by the caller.
func (idx *Index) buildConnectEntries(ev *BlockEvent) ([]IndexEntry, error) {
	block := ev.Block
	txCountSize := wire.VarIntSerializeSize(uint64(len(block.Transactions)))

	currentPos := ev.Pos
	currentPos.TxOffset = blockHeaderSize + uint32(txCountSize)

	var entries []IndexEntry
	for i, tx := range block.Transactions {
		for j, out := range tx.TxOut {
			id := idx.fingerprint(out.PkScript)
			entries = append(entries, IndexEntry{
				AddrId: id,
				Kind:   EntryCreated,
				Out:    wire.OutPoint{Hash: tx.TxHash(), Index: uint32(j)},
				Pos:    currentPos,
				Script: out.PkScript,
			})
		}

		if i > 0 {
			if ev.Undo == nil {
				return nil, indexError(ErrCorruption,
					"connect_block called without undo data for a non-coinbase transaction", nil)
			}
			if i-1 >= len(ev.Undo.TxUndo) {
				return nil, indexError(ErrCorruption,
					"block undo record is shorter than the block's transaction list", nil)
			}
			txUndo := ev.Undo.TxUndo[i-1]
			if len(txUndo.PrevOut) != len(tx.TxIn) {
				return nil, indexError(ErrCorruption,
					"block undo record does not match the transaction's input count", nil)
			}

			for k, in := range tx.TxIn {
				prev := txUndo.PrevOut[k]
				id := idx.fingerprint(prev.Script)
				entries = append(entries, IndexEntry{
					AddrId: id,
					Kind:   EntrySpent,
					Out:    in.PreviousOutPoint,
					Pos:    currentPos,
					Script: prev.Script,
				})
			}
		}

		currentPos.TxOffset += uint32(tx.SerializeSize())
	}

	return entries, nil
}

// disconnectBlock implements spec.md §4.C disconnect_block: recover every
// AddrId touched by the block being removed, scan each one's prefix for
// entries whose DiskTxPos falls inside that block, and delete them all in
// one atomic batch.
func (idx *Index) disconnectBlock(ev *DisconnectEvent) error {
	ids, err := idx.candidateAddrIds(ev.Block)
	if err != nil {
		return err
	}

	return kvdb.Update(idx.db, func(tx kvdb.ReadWriteTx) error {
		b := tx.ReadWriteBucket(bucketName)
		if b == nil {
			return indexError(ErrCorruption,
				"address index bucket missing at disconnect time", nil)
		}

		for _, id := range ids {
			if err := deleteEntriesForBlock(b, id, ev.Pos.BlockFileID, ev.Pos.BlockOffset); err != nil {
				return err
			}
		}

		return nil
	})
}

// candidateAddrIds derives the set of AddrIds touched by block: every
// output script in every transaction, and every non-coinbase input's
// prior-output script as recovered from the CoinsView. Coinbase inputs
// carry a null prevout and must never be sought here.
func (idx *Index) candidateAddrIds(block *wire.MsgBlock) ([]AddrId, error) {
	seen := make(map[AddrId]struct{})
	var ids []AddrId

	add := func(script []byte) {
		id := idx.fingerprint(script)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for i, tx := range block.Transactions {
		for _, out := range tx.TxOut {
			add(out.PkScript)
		}

		if i == 0 {
			continue
		}
		for _, in := range tx.TxIn {
			coin, ok, err := idx.cfg.Coins.GetCoin(in.PreviousOutPoint)
			if err != nil {
				return nil, indexError(ErrKvStoreIo,
					"coins view lookup failed during disconnect", err)
			}
			if !ok {
				continue
			}
			add(coin.Script)
		}
	}

	return ids, nil
}

// deleteEntriesForBlock scans the prefix for id and deletes every entry
// whose DiskTxPos falls inside the block identified by the pair
// (blockFileID, blockOffset). A file id alone is not a unique block
// locator — a real block store packs many blocks into one file — so both
// fields must match, or disconnecting one block would also erase the
// still-connected entries of every other block sharing its file.
func deleteEntriesForBlock(b kvdb.ReadWriteBucket, id AddrId, blockFileID, blockOffset uint32) error {
	prefix := encodeAddrPrefix(id)
	c := b.ReadWriteCursor()

	var toDelete [][]byte
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		pos, _, err := decodeValue(v)
		if err != nil {
			return err
		}
		if pos.BlockFileID == blockFileID && pos.BlockOffset == blockOffset {
			keyCopy := make([]byte, len(k))
			copy(keyCopy, k)
			toDelete = append(toDelete, keyCopy)
		}
	}

	for _, k := range toDelete {
		if err := b.Delete(k); err != nil {
			return indexError(ErrKvStoreIo,
				"failed to delete address index entry during disconnect", err)
		}
	}
	return nil
}

// fingerprint computes this index's AddrId for script using the seed
// loaded once at Init and never mutated afterward, so it is safe to read
// from any goroutine without locking per spec.md §5.
func (idx *Index) fingerprint(script []byte) AddrId {
	return fingerprint(idx.seed, script)
}

// markEnabled persists the marker that this database has completed
// connecting at least one block. Index.Enabled reads it back;
// FindByScript and BlockUntilSyncedToCurrentChain do not consult it.
func markEnabled(tx kvdb.ReadWriteTx) error {
	b := tx.ReadWriteBucket(bucketName)
	key := encodeSingletonKey(EntryEnabled)
	if b.Get(key) != nil {
		return nil
	}
	if err := b.Put(key, []byte{1}); err != nil {
		return indexError(ErrKvStoreIo,
			"failed to persist enabled marker", err)
	}
	return nil
}

// isEnabled reports whether markEnabled has ever succeeded against db.
func isEnabled(tx kvdb.ReadTx) bool {
	b := tx.ReadBucket(bucketName)
	if b == nil {
		return false
	}
	return b.Get(encodeSingletonKey(EntryEnabled)) != nil
}
