// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"

	"github.com/visionchain/visiond/internal/chainhash"
)

// BlockHeader is the fixed-size portion of a block sufficient for
// headers-first sync and VisionX verification, without needing the
// full transaction set.
type BlockHeader struct {
	Version    uint32
	Height     uint64
	PrevHash   chainhash.Hash
	Timestamp  int64
	Difficulty uint32
	TxRoot     chainhash.Hash
	Nonce      uint64
}

// HeaderNonceOffset is the byte offset of the big-endian nonce within
// the canonical header layout produced by Bytes: version (4) + height
// (8) + prev hash (32) + timestamp (8) + difficulty (4).
const HeaderNonceOffset = 4 + 8 + 32 + 8 + 4

// Bytes returns the canonical big-endian byte layout hashed by VisionX,
// matching the field order and widths the original genesis/PoW code
// uses: version, height, prev_hash, timestamp, difficulty, nonce, tx_root.
func (h *BlockHeader) Bytes() []byte {
	buf := make([]byte, 4+8+chainhash.HashSize+8+4+8+chainhash.HashSize)
	off := 0
	binary.BigEndian.PutUint32(buf[off:], h.Version)
	off += 4
	binary.BigEndian.PutUint64(buf[off:], h.Height)
	off += 8
	copy(buf[off:], h.PrevHash[:])
	off += chainhash.HashSize
	binary.BigEndian.PutUint64(buf[off:], uint64(h.Timestamp))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], h.Difficulty)
	off += 4
	binary.BigEndian.PutUint64(buf[off:], h.Nonce)
	off += 8
	copy(buf[off:], h.TxRoot[:])
	return buf
}

// Hash returns the block identity hash: SHA-256 of the header bytes
// (distinct from the VisionX PoW digest, which is computed over the
// same bytes but run through the memory-hard mixing function instead).
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.HashH(h.Bytes())
}

// Block is a full block: its header plus the ordered transaction list
// the header's TxRoot commits to.
type Block struct {
	Header BlockHeader
	Txs    []*Tx
}

// ComputeTxRoot returns the Merkle-style root committing to txs, using
// simple SHA-256 pairwise folding (no duplicate-last-leaf ambiguity
// since an odd node is carried forward unchanged).
func ComputeTxRoot(txs []*Tx) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}
	layer := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		layer[i] = tx.Hash()
	}
	for len(layer) > 1 {
		next := make([]chainhash.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			combined := append(append([]byte(nil), layer[i][:]...), layer[i+1][:]...)
			next = append(next, chainhash.HashH(combined))
		}
		layer = next
	}
	return layer[0]
}
