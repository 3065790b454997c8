// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import (
	"encoding/binary"
)

// byteOrder is the fixed endianness chosen at schema freeze. Big-endian is
// required, not merely conventional: keys must sort under plain byte
// comparison the way the tuple (table_tag, AddrId, kind, Outpoint) sorts,
// and only big-endian integers preserve numeric order under byte order.
var byteOrder = binary.BigEndian

// addrTag namespaces this table within the shared key/value store.
const addrTag = 'a'

// Fixed widths, in bytes, of each field making up an encoded key.
const (
	tagWidth    = 1
	addrIdWidth = 4
	kindWidth   = 1
	hashWidth   = 32
	indexWidth  = 4
	outWidth    = hashWidth + indexWidth

	keyWidth = tagWidth + addrIdWidth + kindWidth + outWidth

	// singletonKeyWidth is the width of the seed and enabled-marker
	// keys: tag plus the reserved kind byte, with no AddrId or
	// outpoint.
	singletonKeyWidth = tagWidth + kindWidth
)

// Fixed widths making up an encoded value.
const (
	posWidth = 4 + 4 + 4 // DiskTxPos: three big-endian uint32 fields
)

// encodeSingletonKey builds the key for one of the table's singleton
// records (the seed, the enabled marker). These never carry an AddrId or
// outpoint; they are distinguished purely by kind.
func encodeSingletonKey(kind EntryKind) []byte {
	k := make([]byte, singletonKeyWidth)
	k[0] = addrTag
	k[1] = byte(kind)
	return k
}

// encodeAddrPrefix produces the exact byte sequence that every encoded key
// for id starts with. Seeking to this prefix and iterating ascending
// visits every entry for id, of both kinds, and nothing else, until the
// prefix changes.
func encodeAddrPrefix(id AddrId) []byte {
	p := make([]byte, tagWidth+addrIdWidth)
	p[0] = addrTag
	byteOrder.PutUint32(p[tagWidth:], uint32(id))
	return p
}

// encodeKey builds the full key for one IndexEntry.
func encodeKey(id AddrId, kind EntryKind, out Outpoint) []byte {
	k := make([]byte, keyWidth)
	n := copy(k, encodeAddrPrefix(id))
	k[n] = byte(kind)
	n += kindWidth
	n += copy(k[n:], out.Hash[:])
	byteOrder.PutUint32(k[n:], out.Index)
	return k
}

// decodeKey is the inverse of encodeKey. Any key of the wrong width is
// treated as database corruption; the caller must not attempt to recover
// from it.
func decodeKey(k []byte) (AddrId, EntryKind, Outpoint, error) {
	var out Outpoint
	if len(k) != keyWidth {
		return 0, 0, out, indexError(ErrCorruption,
			"address index key has unexpected length", nil)
	}
	if k[0] != addrTag {
		return 0, 0, out, indexError(ErrCorruption,
			"address index key has unexpected table tag", nil)
	}

	id := AddrId(byteOrder.Uint32(k[tagWidth:]))
	kind := EntryKind(k[tagWidth+addrIdWidth])

	n := tagWidth + addrIdWidth + kindWidth
	copy(out.Hash[:], k[n:n+hashWidth])
	n += hashWidth
	out.Index = byteOrder.Uint32(k[n:])

	return id, kind, out, nil
}

// encodeValue builds the value half of an IndexEntry: the transaction
// locator followed by the raw script, carried in-line rather than hashed
// so the lookup engine can re-verify exact script equality.
func encodeValue(pos DiskTxPos, script []byte) []byte {
	v := make([]byte, posWidth+len(script))
	byteOrder.PutUint32(v[0:], pos.BlockFileID)
	byteOrder.PutUint32(v[4:], pos.BlockOffset)
	byteOrder.PutUint32(v[8:], pos.TxOffset)
	copy(v[posWidth:], script)
	return v
}

// decodeValue is the inverse of encodeValue.
func decodeValue(v []byte) (DiskTxPos, []byte, error) {
	var pos DiskTxPos
	if len(v) < posWidth {
		return pos, nil, indexError(ErrCorruption,
			"address index value is shorter than a DiskTxPos", nil)
	}
	pos.BlockFileID = byteOrder.Uint32(v[0:])
	pos.BlockOffset = byteOrder.Uint32(v[4:])
	pos.TxOffset = byteOrder.Uint32(v[8:])

	script := make([]byte, len(v)-posWidth)
	copy(script, v[posWidth:])
	return pos, script, nil
}
