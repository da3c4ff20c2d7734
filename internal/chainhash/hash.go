// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the Hash type and hashing functions used
// throughout block, transaction, and PoW encoding.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// HashSize is the size, in bytes, of a hash produced by this package.
const HashSize = 32

// Hash is a 32-byte array used to represent block, transaction, and
// header digests.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash, matching the convention used by block explorers.
func (h Hash) String() string {
	var reversed Hash
	for i := 0; i < HashSize/2; i++ {
		reversed[i], reversed[HashSize-1-i] = h[HashSize-1-i], h[i]
	}
	return hex.EncodeToString(reversed[:])
}

// CloneBytes returns a newly allocated copy of the hash bytes.
func (h *Hash) CloneBytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// IsEqual returns whether h and target represent the same hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// SetBytes sets the hash to the value of the passed slice, which must be
// exactly HashSize bytes.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// NewHash returns a new Hash from a byte slice, erroring if the slice is
// not exactly HashSize bytes.
func NewHash(newHash []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &h, nil
}

// HashB calculates the SHA-256 hash of the passed data.
func HashB(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// HashH calculates the SHA-256 hash of the passed data and returns it as a
// Hash.
func HashH(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// HashFuncB calculates the double SHA-256 hash of the passed data.
func HashFuncB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// HashFuncH calculates the double SHA-256 hash of the passed data and
// returns it as a Hash.
func HashFuncH(b []byte) Hash {
	first := sha256.Sum256(b)
	return Hash(sha256.Sum256(first[:]))
}

// Blake3Hash calculates the 256-bit BLAKE3 hash of the passed data. This is
// the digest used for consensus-locked fingerprints (genesis and economics).
func Blake3Hash(b []byte) Hash {
	return Hash(blake3.Sum256(b))
}
