// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/btcaddrindex/addrindex/addrindextest"
)

func TestFindByScriptDisjointAcrossAddresses(t *testing.T) {
	idx, _, blocks, _ := newTestIndex(t)

	scriptA := p2pkhScript([]byte("address one"))
	scriptB := p2pkhScript([]byte("address two"))

	txA := coinbaseTx(1, scriptA)
	txB := wire.NewMsgTx(1)
	txB.AddTxOut(&wire.TxOut{Value: 1, PkScript: scriptB})

	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{txA, txB}}
	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{TxUndo: []TxUndo{{}}})
	require.NoError(t, err)
	require.NoError(t, idx.connectBlock(&BlockEvent{
		Block: block, Undo: &BlockUndo{TxUndo: []TxUndo{{}}}, Pos: pos, Height: 1,
	}))

	_, createdA, err := idx.FindByScript(scriptA)
	require.NoError(t, err)
	require.Len(t, createdA, 1)
	require.Equal(t, txA.TxHash(), createdA[0].Tx.TxHash())

	_, createdB, err := idx.FindByScript(scriptB)
	require.NoError(t, err)
	require.Len(t, createdB, 1)
	require.Equal(t, txB.TxHash(), createdB[0].Tx.TxHash())
}

// TestFindByScriptViaWorker drives the index through its public Start/Stop
// surface and the addrindextest.Notifier fake, rather than calling
// connectBlock directly, so the background worker goroutine and
// BlockUntilSyncedToCurrentChain are exercised end to end.
func TestFindByScriptViaWorker(t *testing.T) {
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

	require.NoError(t, idx.Start())
	defer idx.Stop()

	script := p2pkhScript([]byte("worker address"))
	tx := coinbaseTx(1, script)
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{tx}}
	pos, err := blocks.AddBlock(1, 0, block, &BlockUndo{})
	require.NoError(t, err)

	notifier.Connect(&BlockEvent{Block: block, Undo: &BlockUndo{}, Pos: pos, Height: 1})

	synced := make(chan bool, 1)
	go func() { synced <- idx.BlockUntilSyncedToCurrentChain() }()

	select {
	case ok := <-synced:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reached synced state")
	}

	require.True(t, idx.Enabled())

	_, created, err := idx.FindByScript(script)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, tx.TxHash(), created[0].Tx.TxHash())
}
