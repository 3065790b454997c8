// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/btcaddrindex/kvdb"
)

// FindByScript implements spec.md §4.D find_by_script. It resolves script
// to every currently connected index entry for it, reconstructing the
// transaction each entry points at from the block store. The result is
// complete and consistent with a single KV snapshot; a block-store error
// aborts the call rather than being silently skipped.
func (idx *Index) FindByScript(script []byte) (spent, created []Match, err error) {
	id := idx.fingerprint(script)
	return findByPrefix(idx, encodeAddrPrefix(id), script)
}

// findByPrefix is the prefix-scan-plus-collision-filter core of
// FindByScript, factored out so it can be driven with an explicit prefix
// rather than one derived from fingerprint() — useful for exercising the
// collision-filter path in isolation from hash behavior.
func findByPrefix(idx *Index, prefix, script []byte) (spent, created []Match, err error) {
	err = kvdb.View(idx.db, func(tx kvdb.ReadTx) error {
		b := tx.ReadBucket(bucketName)
		if b == nil {
			return nil
		}

		c := b.ReadCursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			_, kind, out, err := decodeKey(k)
			if err != nil {
				return err
			}

			pos, storedScript, err := decodeValue(v)
			if err != nil {
				return err
			}
			if !bytes.Equal(storedScript, script) {
				// AddrId collision: a different script hashed to
				// the same prefix. Not a match.
				continue
			}

			tx, blockHash, err := idx.loadTx(pos)
			if err != nil {
				return err
			}

			match := Match{Out: out, Tx: tx, BlockHash: blockHash}
			switch kind {
			case EntryCreated:
				created = append(created, match)
			case EntrySpent:
				spent = append(spent, match)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return spent, created, nil
}

// loadTx opens the block file named by pos (BlockStore.OpenBlockFile
// returns a stream already positioned at the block's own start, i.e. at
// file offset pos.BlockOffset), deserializes the block header, seeks
// forward to the transaction at pos.TxOffset (measured from that same
// block start), and deserializes exactly one transaction. Any failure
// here is fatal to the call: the index is out of sync with the block
// store and must not return a partial result.
func (idx *Index) loadTx(pos DiskTxPos) (*wire.MsgTx, chainhash.Hash, error) {
	var blockHash chainhash.Hash

	f, err := idx.cfg.Blocks.OpenBlockFile(pos)
	if err != nil {
		return nil, blockHash, indexError(ErrBlockStoreIo,
			"failed to open block file for lookup", err)
	}
	defer f.Close()

	var header wire.BlockHeader
	if err := header.Deserialize(f); err != nil {
		return nil, blockHash, indexError(ErrBlockStoreIo,
			"failed to deserialize block header during lookup", err)
	}
	blockHash = header.BlockHash()

	seekTo := int64(pos.TxOffset) - blockHeaderSize
	if seekTo > 0 {
		if _, err := f.Seek(seekTo, io.SeekCurrent); err != nil {
			return nil, blockHash, indexError(ErrBlockStoreIo,
				"failed to seek to transaction during lookup", err)
		}
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(f); err != nil {
		return nil, blockHash, indexError(ErrBlockStoreIo,
			"failed to deserialize transaction during lookup", err)
	}

	return &tx, blockHash, nil
}
