// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"math/rand"

	"github.com/jrick/bitset"

	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/viscrypto"
	"github.com/visionchain/visiond/internal/wire"
)

// phi64 is the golden-ratio constant used to derive the second SipHash
// key from the compact block's nonce.
const phi64 = 0x9E3779B97F4A7C15

// ShortTxID computes a compact block's legacy short transaction ID,
// keyed by (nonce, nonce*phi64). This matches the original node's
// wire format; ShortTxIDBIP152 below is the more conventional
// block_hash-keyed derivation for implementations that prefer it.
func ShortTxID(nonce uint64, txHash chainhash.Hash) uint64 {
	return viscrypto.ShortTxID(nonce, nonce*phi64, txHash[:])
}

// ShortTxIDBIP152 computes the short ID the BIP-152 convention uses:
// keys derived from blockHash||nonce rather than the nonce alone.
func ShortTxIDBIP152(blockHash chainhash.Hash, nonce uint64, txHash chainhash.Hash) uint64 {
	seed := append(append([]byte(nil), blockHash[:]...), uint64Bytes(nonce)...)
	seedHash := chainhash.HashH(seed)
	k0 := beUint64(seedHash[:8])
	k1 := beUint64(seedHash[8:16])
	return viscrypto.ShortTxID(k0, k1, txHash[:])
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// BuildCompactBlock constructs a CompactBlock for blk, always prefilling
// the coinbase-equivalent first transaction (by convention, index 0) so
// recipients never need a round trip just to learn who mined the block.
func BuildCompactBlock(blk *wire.Block) *wire.CompactBlock {
	nonce := rand.Uint64()
	cb := &wire.CompactBlock{
		Header: blk.Header,
		Nonce:  nonce,
	}
	for i, tx := range blk.Txs {
		if i == 0 {
			cb.PrefilledTxs = append(cb.PrefilledTxs, wire.PrefilledTx{Index: uint32(i), Tx: tx})
			continue
		}
		cb.ShortTxIDs = append(cb.ShortTxIDs, ShortTxID(nonce, tx.Hash()))
	}
	return cb
}

// Reconcile attempts to rebuild a full block from a CompactBlock using
// the caller's mempool contents (indexed by short ID). It returns the
// assembled transaction list and a bitset marking which indices are
// still missing and must be requested via GetBlockTxns.
func Reconcile(cb *wire.CompactBlock, mempoolByShortID map[uint64]*wire.Tx) (txs []*wire.Tx, missing bitset.Bytes) {
	total := len(cb.PrefilledTxs) + len(cb.ShortTxIDs)
	txs = make([]*wire.Tx, total)
	missing = bitset.NewBytes(total)

	for _, p := range cb.PrefilledTxs {
		txs[p.Index] = p.Tx
	}

	shortIdx := 0
	for i := 0; i < total; i++ {
		if txs[i] != nil {
			continue
		}
		sid := cb.ShortTxIDs[shortIdx]
		shortIdx++
		if tx, ok := mempoolByShortID[sid]; ok {
			txs[i] = tx
		} else {
			missing.Set(i)
		}
	}
	return txs, missing
}

// MissingIndexes returns the sorted list of indexes marked in missing,
// suitable for a GetBlockTxns request.
func MissingIndexes(missing bitset.Bytes, total int) []uint32 {
	var out []uint32
	for i := 0; i < total; i++ {
		if missing.Get(i) {
			out = append(out, uint32(i))
		}
	}
	return out
}
