// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/aead/siphash"

	"github.com/btcsuite/btcaddrindex/kvdb"
)

// seedWidth is the width, in bytes, of the persisted fingerprint seed.
const seedWidth = 8

// fingerprint computes AddrId = fingerprint(seed, script): a fast,
// non-cryptographic, seeded hash. Collisions are acceptable and expected
// to be rare; every caller re-verifies by comparing the stored script
// byte-for-byte, so cryptographic strength buys nothing here.
//
// The 64-bit seed is expanded into SipHash-2-4's 128-bit key by writing
// it, big-endian, into both 64-bit halves of the key; the two halves are
// therefore identical. The 64-bit SipHash output is truncated to its low
// 32 bits.
func fingerprint(seed uint64, script []byte) AddrId {
	var key [16]byte
	binary.BigEndian.PutUint64(key[0:8], seed)
	binary.BigEndian.PutUint64(key[8:16], seed)

	h := siphash.Sum64(script, &key)
	return AddrId(uint32(h))
}

// initSeed implements the §4.B Init protocol: load the persisted seed if
// one exists, otherwise draw a fresh one from a cryptographic RNG and
// persist it before returning. The seed is fixed for the life of the
// database; the only supported way to rotate it is to wipe the directory
// and start over.
func initSeed(tx kvdb.ReadWriteTx, bucket []byte) (uint64, error) {
	b, err := tx.CreateTopLevelBucket(bucket)
	if err != nil {
		return 0, indexError(ErrKvStoreIo,
			"failed to open address index bucket", err)
	}

	key := encodeSingletonKey(EntrySeed)
	if v := b.Get(key); v != nil {
		if len(v) != seedWidth {
			return 0, indexError(ErrCorruption,
				"persisted fingerprint seed has unexpected length", nil)
		}
		return byteOrder.Uint64(v), nil
	}

	var buf [seedWidth]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, indexError(ErrCorruption,
			"failed to draw fingerprint seed from RNG", err)
	}
	if err := b.Put(key, buf[:]); err != nil {
		return 0, indexError(ErrKvStoreIo,
			"failed to persist fingerprint seed", err)
	}

	return byteOrder.Uint64(buf[:]), nil
}
