// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"context"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/blockalloc"
	"github.com/visionchain/visiond/internal/chain"
	"github.com/visionchain/visiond/internal/mempool"
	"github.com/visionchain/visiond/internal/pow/visionx"
	"github.com/visionchain/visiond/internal/wire"
)

// MaxBlockWeight bounds the total transaction weight a single block may
// carry, independent of the VisionX anti-DoS parameter ceilings.
const MaxBlockWeight = 2_000_000

// MaxTxsPerBlock bounds the transaction count per block.
const MaxTxsPerBlock = 8_000

// Template is an assembled, unsolved block ready for VisionX mining.
type Template struct {
	Header wire.BlockHeader
	Txs    []*wire.Tx
	Target *big.Int
}

// CoinbaseTx builds the mint transaction that must sit at index 0 of
// any non-empty block, crediting reward to the miner's account. The
// height doubles as the tx nonce so every coinbase is unique even when
// the reward and recipient repeat.
func CoinbaseTx(minerPubKey []byte, height uint64, reward cointype.Amount) *wire.Tx {
	var args [8]byte
	binary.BigEndian.PutUint64(args[:], uint64(reward))
	return &wire.Tx{
		Nonce:        height,
		SenderPubKey: append([]byte(nil), minerPubKey...),
		Module:       wire.ModuleMint,
		Method:       "coinbase",
		Args:         args[:],
	}
}

// BuildTemplate assembles a block template for the next height on top
// of c: the coinbase first, then mempool transactions selected via the
// critical/bulk allocator. A zero reward (ineligible or fees-only
// isolation mining with an empty pool) produces a coinbase that mints
// nothing but still anchors index 0.
func BuildTemplate(p *chaincfg.Params, c *chain.Chain, pool *mempool.Pool, al *blockalloc.Allocator, minerPubKey []byte, reward cointype.Amount) Template {
	height := c.BestHeight() + 1
	selected := blockalloc.SelectTxsForBlock(pool, al, MaxBlockWeight/10, MaxBlockWeight, MaxTxsPerBlock)

	txs := make([]*wire.Tx, 0, len(selected)+1)
	txs = append(txs, CoinbaseTx(minerPubKey, height, reward))
	txs = append(txs, selected...)

	header := wire.BlockHeader{
		Version:    1,
		Height:     height,
		PrevHash:   c.BestHash(),
		Timestamp:  time.Now().Unix(),
		Difficulty: c.DifficultyAt(height),
		TxRoot:     wire.ComputeTxRoot(txs),
	}

	target := TargetFromDifficulty(header.Difficulty)
	return Template{Header: header, Txs: txs, Target: target}
}

// Solve runs VisionX mining against the template until a solution is
// found or ctx is canceled, filling in the header's nonce on success.
func Solve(ctx context.Context, vp visionx.Params, tmpl *Template) (*visionx.Solution, error) {
	job := visionx.Job{
		Height:   tmpl.Header.Height,
		PrevHash: tmpl.Header.PrevHash,
		Header:   tmpl.Header.Bytes(),
		Target:   tmpl.Target,
	}
	miner := &visionx.Miner{Params: vp}
	const batchSize = 1 << 16

	for nonce := uint64(0); ; nonce += batchSize {
		sol, err := miner.MineBatch(ctx, job, nonce, batchSize)
		if err != nil {
			return nil, err
		}
		if sol != nil {
			tmpl.Header.Nonce = sol.Nonce
			return sol, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
}

// TargetFromDifficulty expands a difficulty value into the 256-bit
// target a VisionX digest must not exceed. Difficulty here is a linear
// divisor of the maximal 256-bit value, simpler than Bitcoin-style
// compact bits since VisionX targets don't need the exponent/mantissa
// wire encoding this codebase's block headers never transmit separately.
func TargetFromDifficulty(difficulty uint32) *big.Int {
	if difficulty == 0 {
		difficulty = 1
	}
	maxTarget := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	return new(big.Int).Div(maxTarget, big.NewInt(int64(difficulty)))
}
