// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/btcaddrindex/addrindex/addrindextest"
	"github.com/btcsuite/btcaddrindex/kvdb"
)

// scriptN builds a small, distinct pkScript for test fixtures.
func scriptN(n byte) []byte {
	return []byte{0x76, 0xa9, 0x14, n, n, n, n, n, n, n, n, n, n, n, n, n, n, n, n, 0x88, 0xac}
}

func coinbaseTx(height int32, outScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  []byte{byte(height)},
	})
	tx.AddTxOut(&wire.TxOut{Value: 5000000000, PkScript: outScript})
	return tx
}

func spendTx(prevOut wire.OutPoint, outScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: prevOut})
	tx.AddTxOut(&wire.TxOut{Value: 4900000000, PkScript: outScript})
	return tx
}

func newTestIndex(t *testing.T) (*Index, *addrindextest.Notifier, *addrindextest.BlockStore, *addrindextest.CoinsView) {
	notifier := &addrindextest.Notifier{}
	blocks := addrindextest.NewBlockStore()
	coins := addrindextest.NewCoinsView()

	idx, err := New(Config{
		DBDriver: "bdb",
		DBPath:   t.TempDir() + "/addrindex.db",
		Notifier: notifier,
		Blocks:   blocks,
		Coins:    coins,
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.db.Close() })

	return idx, notifier, blocks, coins
}

func TestConnectBlockRoundTrip(t *testing.T) {
	idx, _, blocks, _ := newTestIndex(t)

	script := scriptN(1)
	tx := coinbaseTx(1, script)
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{tx}}

	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{})
	require.NoError(t, err)

	require.NoError(t, idx.connectBlock(&BlockEvent{
		Block: block, Undo: &BlockUndo{}, Pos: pos, Height: 1,
	}))

	spent, created, err := idx.FindByScript(script)
	require.NoError(t, err)
	require.Empty(t, spent)
	require.Len(t, created, 1)
	require.Equal(t, tx.TxHash(), created[0].Tx.TxHash())
	require.Equal(t, uint32(0), created[0].Out.Index)
}

func TestSpentSymmetry(t *testing.T) {
	idx, _, blocks, _ := newTestIndex(t)

	coinbaseScript := scriptN(1)
	cb := coinbaseTx(1, coinbaseScript)
	block1 := &wire.MsgBlock{Transactions: []*wire.MsgTx{cb}}
	pos1, err := blocks.AddBlock(1, 0, block1, &BlockUndo{})
	require.NoError(t, err)
	require.NoError(t, idx.connectBlock(&BlockEvent{Block: block1, Undo: &BlockUndo{}, Pos: pos1, Height: 1}))

	spendScript := scriptN(2)
	cbOut := wire.OutPoint{Hash: cb.TxHash(), Index: 0}
	spend := spendTx(cbOut, spendScript)
	block2 := &wire.MsgBlock{Transactions: []*wire.MsgTx{coinbaseTx(2, scriptN(9)), spend}}
	undo2 := &BlockUndo{TxUndo: []TxUndo{{PrevOut: []PrevOut{{Script: coinbaseScript, Value: 5000000000}}}}}
	pos2, err := blocks.AddBlock(2, 0, block2, undo2)
	require.NoError(t, err)
	require.NoError(t, idx.connectBlock(&BlockEvent{Block: block2, Undo: undo2, Pos: pos2, Height: 2}))

	spent, _, err := idx.FindByScript(coinbaseScript)
	require.NoError(t, err)
	require.Len(t, spent, 1)
	require.Equal(t, cbOut, spent[0].Out)
	require.Equal(t, spend.TxHash(), spent[0].Tx.TxHash())
}

func TestCoinbaseExcludedFromSpent(t *testing.T) {
	idx, _, blocks, _ := newTestIndex(t)

	cb := coinbaseTx(1, scriptN(1))
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{cb}}
	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{})
	require.NoError(t, err)
	require.NoError(t, idx.connectBlock(&BlockEvent{Block: block, Undo: &BlockUndo{}, Pos: pos, Height: 1}))

	// The coinbase's own null-prevout input must never generate a SPENT
	// entry keyed off an empty script.
	spent, _, err := idx.FindByScript(nil)
	require.NoError(t, err)
	require.Empty(t, spent)
}

func TestDisconnectErasesBlockEntries(t *testing.T) {
	idx, _, blocks, coins := newTestIndex(t)

	script := scriptN(1)
	cb := coinbaseTx(1, script)
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{cb}}
	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{})
	require.NoError(t, err)
	require.NoError(t, idx.connectBlock(&BlockEvent{Block: block, Undo: &BlockUndo{}, Pos: pos, Height: 1}))

	_, created, err := idx.FindByScript(script)
	require.NoError(t, err)
	require.Len(t, created, 1)

	coins.Add(wire.OutPoint{Hash: cb.TxHash(), Index: 0}, &Coin{Script: script, Value: 5000000000})

	require.NoError(t, idx.disconnectBlock(&DisconnectEvent{Block: block, Pos: pos, Height: 1}))

	_, created, err = idx.FindByScript(script)
	require.NoError(t, err)
	require.Empty(t, created)
}

func TestIdempotentConnectDisconnectReconnect(t *testing.T) {
	idx, _, blocks, coins := newTestIndex(t)

	script := scriptN(1)
	cb := coinbaseTx(1, script)
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{cb}}
	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{})
	require.NoError(t, err)

	connect := func() {
		require.NoError(t, idx.connectBlock(&BlockEvent{Block: block, Undo: &BlockUndo{}, Pos: pos, Height: 1}))
	}
	disconnect := func() {
		require.NoError(t, idx.disconnectBlock(&DisconnectEvent{Block: block, Pos: pos, Height: 1}))
	}

	connect()
	_, created1, err := idx.FindByScript(script)
	require.NoError(t, err)

	coins.Add(wire.OutPoint{Hash: cb.TxHash(), Index: 0}, &Coin{Script: script, Value: 5000000000})
	disconnect()
	connect()

	_, created2, err := idx.FindByScript(script)
	require.NoError(t, err)
	require.Equal(t, created1, created2)
}

func TestQueryBeforeStart(t *testing.T) {
	idx, _, _, _ := newTestIndex(t)

	spent, created, err := idx.FindByScript(scriptN(1))
	require.NoError(t, err)
	require.Empty(t, spent)
	require.Empty(t, created)
	require.False(t, idx.BlockUntilSyncedToCurrentChain())
}

// TestCollisionSafety writes two entries directly under a shared,
// synthetic AddrId (bypassing fingerprint(), since forcing a real
// 32-bit SipHash collision in a test is impractical) and checks that
// FindByScript's byte-exact comparison keeps the two scripts' results
// disjoint anyway.
func TestCollisionSafety(t *testing.T) {
	idx, _, blocks, _ := newTestIndex(t)

	scriptA := []byte("script-one")
	scriptB := []byte("script-two-but-different-length")

	txA := wire.NewMsgTx(1)
	txA.AddTxOut(&wire.TxOut{Value: 1, PkScript: scriptA})
	txB := wire.NewMsgTx(1)
	txB.AddTxOut(&wire.TxOut{Value: 1, PkScript: scriptB})

	blockA := &wire.MsgBlock{Transactions: []*wire.MsgTx{txA}}
	blockB := &wire.MsgBlock{Transactions: []*wire.MsgTx{txB}}
	posA, err := blocks.AddBlock(1, 0, blockA, &BlockUndo{})
	require.NoError(t, err)
	posB, err := blocks.AddBlock(2, 0, blockB, &BlockUndo{})
	require.NoError(t, err)
	posA.TxOffset = blockHeaderSize + 1
	posB.TxOffset = blockHeaderSize + 1

	const collidingID = AddrId(777)
	outA := wire.OutPoint{Hash: txA.TxHash(), Index: 0}
	outB := wire.OutPoint{Hash: txB.TxHash(), Index: 0}

	err = kvdb.Update(idx.db, func(tx kvdb.ReadWriteTx) error {
		b := tx.ReadWriteBucket(bucketName)
		if err := b.Put(encodeKey(collidingID, EntryCreated, outA), encodeValue(posA, scriptA)); err != nil {
			return err
		}
		return b.Put(encodeKey(collidingID, EntryCreated, outB), encodeValue(posB, scriptB))
	})
	require.NoError(t, err)

	spentA, createdA, err := findByPrefix(idx, encodeAddrPrefix(collidingID), scriptA)
	require.NoError(t, err)
	require.Empty(t, spentA)
	require.Len(t, createdA, 1)
	require.Equal(t, outA, createdA[0].Out)

	spentB, createdB, err := findByPrefix(idx, encodeAddrPrefix(collidingID), scriptB)
	require.NoError(t, err)
	require.Empty(t, spentB)
	require.Len(t, createdB, 1)
	require.Equal(t, outB, createdB[0].Out)
}
