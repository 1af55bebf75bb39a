// Package types defines the wire and storage data model shared by the
// verification and propagation cores: headers, blocks, transactions,
// compact blocks, epoch extensions and the DAO field.
package types

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashLength is the size in bytes of a block or transaction hash.
const HashLength = 32

// Hash identifies a header, transaction or uncle by its digest.
type Hash [HashLength]byte

// ShortIDLength is the size in bytes of a compact-block short transaction id.
const ShortIDLength = 10

// ShortID is the first ShortIDLength bytes of a transaction hash, used to
// match pool contents against a compact block without shipping full hashes.
type ShortID [ShortIDLength]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the underlying hash bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashLength)
	copy(b, h[:])
	return b
}

func BytesToHash(b []byte) Hash {
	var h Hash
	copy(h[HashLength-len(b):], b)
	return h
}

func (s ShortID) String() string { return hex.EncodeToString(s[:]) }

// ShortIDFromHash derives the compact-block short id of a transaction hash:
// the first ShortIDLength bytes of the hash.
func ShortIDFromHash(h Hash) ShortID {
	var s ShortID
	copy(s[:], h[:ShortIDLength])
	return s
}

// hashDigest returns the Keccak-family digest of data, matching the
// hashing primitive the teacher's crypto package builds on.
func hashDigest(parts ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		if _, err := d.Write(p); err != nil {
			panic(fmt.Sprintf("hash write: %v", err))
		}
	}
	var h Hash
	d.Sum(h[:0])
	return h
}
