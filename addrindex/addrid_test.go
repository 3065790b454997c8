// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/btcaddrindex/kvdb"
	_ "github.com/btcsuite/btcaddrindex/kvdb/bdb"
)

// p2pkhScript builds a realistic-shaped pay-to-pubkey-hash script from an
// arbitrary "pubkey" payload, the same OP_DUP OP_HASH160 <20 bytes>
// OP_EQUALVERIFY OP_CHECKSIG layout every P2PKH output on the network uses.
func p2pkhScript(pubkey []byte) []byte {
	h := btcutil.Hash160(pubkey)
	script := make([]byte, 0, 25)
	script = append(script, 0x76, 0xa9, 0x14)
	script = append(script, h...)
	script = append(script, 0x88, 0xac)
	return script
}

func TestFingerprintDeterministic(t *testing.T) {
	script := p2pkhScript([]byte{0xde, 0xad, 0xbe, 0xef})

	a := fingerprint(1234, script)
	b := fingerprint(1234, script)
	require.Equal(t, a, b)

	c := fingerprint(5678, script)
	require.NotEqual(t, a, c, "different seeds should (overwhelmingly likely) fingerprint differently")
}

func TestInitSeedFreshThenReopen(t *testing.T) {
	dbPath := t.TempDir() + "/addrindex.db"

	db, err := kvdb.Create("bdb", dbPath)
	require.NoError(t, err)

	var seed1 uint64
	err = kvdb.Update(db, func(tx kvdb.ReadWriteTx) error {
		s, err := initSeed(tx, bucketName)
		seed1 = s
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := kvdb.Open("bdb", dbPath)
	require.NoError(t, err)
	defer db2.Close()

	var seed2 uint64
	err = kvdb.Update(db2, func(tx kvdb.ReadWriteTx) error {
		s, err := initSeed(tx, bucketName)
		seed2 = s
		return err
	})
	require.NoError(t, err)

	require.Equal(t, seed1, seed2, "reopening the same database must observe the same seed")
}

func TestWipeProducesDifferentSeed(t *testing.T) {
	script := []byte("some script")

	dbPath1 := t.TempDir() + "/addrindex.db"
	db1, err := kvdb.Create("bdb", dbPath1)
	require.NoError(t, err)
	var seed1 uint64
	require.NoError(t, kvdb.Update(db1, func(tx kvdb.ReadWriteTx) error {
		s, err := initSeed(tx, bucketName)
		seed1 = s
		return err
	}))
	require.NoError(t, db1.Close())

	dbPath2 := t.TempDir() + "/addrindex.db"
	db2, err := kvdb.Create("bdb", dbPath2)
	require.NoError(t, err)
	var seed2 uint64
	require.NoError(t, kvdb.Update(db2, func(tx kvdb.ReadWriteTx) error {
		s, err := initSeed(tx, bucketName)
		seed2 = s
		return err
	}))
	require.NoError(t, db2.Close())

	require.NotEqual(t, seed1, seed2)
	require.NotEqual(t, fingerprint(seed1, script), fingerprint(seed2, script))
}
