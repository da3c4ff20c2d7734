// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain holds validated chain state: the best-known block
// sequence, per-sender account nonces, the orphan buffer, and the
// difficulty retarget used to derive the VisionX target for the next
// block.
package chain

import (
	"encoding/binary"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/store"
	"github.com/visionchain/visiond/internal/wire"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// RetargetWindow is the number of blocks the difficulty retarget looks
// back over.
const RetargetWindow = 144

// TargetBlockSeconds is the intended average spacing between blocks.
const TargetBlockSeconds = 120

// medianTimestampWindow is the number of preceding blocks a new
// block's timestamp is checked against once the chain is deep enough.
const medianTimestampWindow = 11

// maxFutureDrift bounds how far a block's timestamp may sit ahead of
// the local clock before it's rejected as implausible.
const maxFutureDrift = 10 * time.Second

// maxOrphans bounds the orphan buffer; the oldest orphan is evicted
// once a newcomer would exceed it.
const maxOrphans = 512

// PoWChecker verifies a header's proof of work. It is injected rather
// than imported so chain state never depends on the hashing package and
// tests can append unsolved headers.
type PoWChecker func(header wire.BlockHeader) error

// Chain is the linearized, validated sequence of accepted blocks. It
// locks internally; the process-wide lock order is Chain before
// PeerMemory before DialTracker, with no cross-edges.
type Chain struct {
	mu sync.RWMutex

	params *chaincfg.Params
	db     *store.Store

	tipHeight uint64
	tipHash   chainhash.Hash
	headers   []wire.BlockHeader // index == height, in-memory cache
	byHash    map[chainhash.Hash]uint64
	txsAt     map[uint64][]*wire.Tx

	nonces map[string]uint64 // raw sender pubkey bytes -> next expected nonce

	powCheck PoWChecker

	orphans     map[chainhash.Hash]*wire.Block // keyed by block hash
	orphanOrder []chainhash.Hash
}

// New constructs a Chain backed by db, seeded with the genesis header
// for params.
func New(params *chaincfg.Params, db *store.Store, genesisHeader wire.BlockHeader) *Chain {
	genesisHash := genesisHeader.Hash()
	return &Chain{
		params:  params,
		db:      db,
		headers: []wire.BlockHeader{genesisHeader},
		byHash:  map[chainhash.Hash]uint64{genesisHash: 0},
		txsAt:   make(map[uint64][]*wire.Tx),
		tipHash: genesisHash,
		nonces:  make(map[string]uint64),
		orphans: make(map[chainhash.Hash]*wire.Block),
	}
}

// SetPoWChecker installs the proof-of-work verifier AppendBlock runs
// against every candidate header. A nil checker skips PoW verification.
func (c *Chain) SetPoWChecker(check PoWChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.powCheck = check
}

// BestHeight returns the height of the current chain tip.
func (c *Chain) BestHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHeight
}

// BestHash returns the hash of the current chain tip.
func (c *Chain) BestHash() chainhash.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHash
}

// GetBlock returns the header at the given height, or ok=false if the
// height is not yet known.
func (c *Chain) GetBlock(height uint64) (wire.BlockHeader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height >= uint64(len(c.headers)) {
		return wire.BlockHeader{}, false
	}
	return c.headers[height], true
}

// BlockByHash returns the full block with the given header hash, or
// ok=false if the hash is not on the canonical chain.
func (c *Chain) BlockByHash(hash chainhash.Hash) (*wire.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	height, ok := c.byHash[hash]
	if !ok {
		return nil, false
	}
	blk := &wire.Block{Header: c.headers[height], Txs: c.txsAt[height]}
	return blk, true
}

// HeightOf returns the canonical height of the given header hash.
func (c *Chain) HeightOf(hash chainhash.Hash) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	height, ok := c.byHash[hash]
	return height, ok
}

// NextNonce returns the next expected nonce for a given sender, keyed
// by its raw public key bytes converted to a string (not hex-encoded).
func (c *Chain) NextNonce(senderPubKeyHex string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nonces[senderPubKeyHex]
}

// AppendBlock validates and appends a block to the chain. It enforces
// height contiguity, parent-hash linkage, timestamp rules (past the
// median of the last 11 blocks, not more than maxFutureDrift ahead of
// local time), the transaction-root commitment, per-tx nonce
// contiguity, and the installed PoW checker. Validation failures leave
// chain state untouched.
func (c *Chain) AppendBlock(header wire.BlockHeader, txs []*wire.Tx) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendBlockLocked(header, txs)
}

func (c *Chain) appendBlockLocked(header wire.BlockHeader, txs []*wire.Tx) error {
	if header.Difficulty == 0 {
		return ruleError("zero_difficulty", "block difficulty must not be zero")
	}
	if header.Height != c.tipHeight+1 {
		return ruleError("bad_block_height",
			"block height is not one greater than the current tip")
	}
	if header.PrevHash != c.tipHash {
		return ruleError("bad_prev_hash", "block does not extend the current tip")
	}
	if header.Height >= medianTimestampWindow {
		window := c.headers[header.Height-medianTimestampWindow : header.Height]
		if header.Timestamp <= medianTimestamp(window) {
			return ruleError("bad_timestamp",
				"block timestamp does not exceed the median of the last 11 timestamps")
		}
	} else if len(c.headers) > 0 {
		prevTimestamp := c.headers[len(c.headers)-1].Timestamp
		if header.Timestamp <= prevTimestamp {
			return ruleError("bad_timestamp", "block timestamp does not advance past parent")
		}
	}
	if header.Timestamp > time.Now().Add(maxFutureDrift).Unix() {
		return ruleError("bad_timestamp", "block timestamp is too far in the future")
	}
	gotRoot := wire.ComputeTxRoot(txs)
	if gotRoot != header.TxRoot {
		return ruleError("bad_tx_root", "computed transaction root does not match header")
	}
	if c.powCheck != nil {
		if err := c.powCheck(header); err != nil {
			return err
		}
	}

	// Validate every nonce before mutating the map, so a bad tx in the
	// middle of the block doesn't leave earlier senders half-applied.
	// The coinbase mint at index 0 carries the block height as its
	// nonce and is exempt from account-nonce accounting.
	pending := make(map[string]uint64)
	for i, tx := range txs {
		if tx.Module == wire.ModuleMint {
			if i != 0 {
				return ruleError("misplaced_coinbase", "mint transaction outside index 0")
			}
			continue
		}
		senderHex := string(tx.SenderPubKey)
		want, staged := pending[senderHex]
		if !staged {
			want = c.nonces[senderHex]
		}
		if tx.Nonce != want {
			return ruleError("nonce_gap", "transaction nonce is not contiguous with account state")
		}
		pending[senderHex] = tx.Nonce + 1
	}
	for senderHex, next := range pending {
		c.nonces[senderHex] = next
	}

	hash := header.Hash()
	c.headers = append(c.headers, header)
	c.byHash[hash] = header.Height
	if len(txs) > 0 {
		c.txsAt[header.Height] = txs
	}
	c.tipHeight = header.Height
	c.tipHash = hash

	if err := c.persist(header, txs, pending); err != nil {
		return err
	}

	log.Debugf("appended block height=%d hash=%s txs=%d", header.Height, c.tipHash, len(txs))
	return nil
}

// ProcessBlock routes an incoming block: blocks extending the tip are
// appended (and any buffered orphans that now connect are drained in
// after them); blocks whose parent is unknown are buffered as orphans;
// blocks at or below the tip height are reported as stale.
func (c *Chain) ProcessBlock(header wire.BlockHeader, txs []*wire.Tx) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if header.Height <= c.tipHeight {
		if _, known := c.byHash[header.Hash()]; known {
			return ruleError("duplicate_block", "block is already on the canonical chain")
		}
		return ruleError("stale_block", "block height is at or below the current tip")
	}

	if header.Height > c.tipHeight+1 || header.PrevHash != c.tipHash {
		c.addOrphanLocked(&wire.Block{Header: header, Txs: txs})
		return orphanError()
	}

	if err := c.appendBlockLocked(header, txs); err != nil {
		return err
	}
	c.connectOrphansLocked()
	return nil
}

// addOrphanLocked buffers a block whose parent is unknown, evicting the
// oldest buffered orphan once the buffer is full.
func (c *Chain) addOrphanLocked(blk *wire.Block) {
	hash := blk.Header.Hash()
	if _, ok := c.orphans[hash]; ok {
		return
	}
	if len(c.orphanOrder) >= maxOrphans {
		oldest := c.orphanOrder[0]
		c.orphanOrder = c.orphanOrder[1:]
		delete(c.orphans, oldest)
	}
	c.orphans[hash] = blk
	c.orphanOrder = append(c.orphanOrder, hash)
	log.Debugf("buffered orphan block height=%d hash=%s (%d buffered)",
		blk.Header.Height, hash, len(c.orphans))
}

// connectOrphansLocked repeatedly appends any buffered orphan that now
// extends the tip, until no buffered block connects.
func (c *Chain) connectOrphansLocked() {
	for {
		var connected *chainhash.Hash
		for hash, blk := range c.orphans {
			if blk.Header.PrevHash != c.tipHash || blk.Header.Height != c.tipHeight+1 {
				continue
			}
			if err := c.appendBlockLocked(blk.Header, blk.Txs); err != nil {
				log.Warnf("buffered orphan %s failed validation on connect: %v", hash, err)
			}
			h := hash
			connected = &h
			break
		}
		if connected == nil {
			return
		}
		delete(c.orphans, *connected)
		for i, h := range c.orphanOrder {
			if h == *connected {
				c.orphanOrder = append(c.orphanOrder[:i], c.orphanOrder[i+1:]...)
				break
			}
		}
	}
}

// OrphanCount returns the number of buffered orphan blocks.
func (c *Chain) OrphanCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orphans)
}

// medianTimestamp returns the middle value of headers' timestamps.
// headers is always medianTimestampWindow (odd) entries long at every
// call site, so there is always a single middle element.
func medianTimestamp(headers []wire.BlockHeader) int64 {
	ts := make([]int64, len(headers))
	for i, h := range headers {
		ts[i] = h.Timestamp
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return ts[len(ts)/2]
}

func (c *Chain) persist(header wire.BlockHeader, txs []*wire.Tx, nonces map[string]uint64) error {
	batch := c.db.NewBatch()

	var heightKey [8]byte
	binary.BigEndian.PutUint64(heightKey[:], header.Height)
	batch.Put(store.TreeHeaders, heightKey[:], header.Bytes())

	raw, err := json.Marshal(&wire.Block{Header: header, Txs: txs})
	if err != nil {
		return err
	}
	blockHash := header.Hash()
	batch.Put(store.TreeBlocks, blockHash[:], raw)

	for senderHex, next := range nonces {
		var nonceVal [8]byte
		binary.BigEndian.PutUint64(nonceVal[:], next)
		batch.Put(store.TreeNonces, []byte(senderHex), nonceVal[:])
	}

	var tipVal [8]byte
	binary.BigEndian.PutUint64(tipVal[:], header.Height)
	batch.Put(store.TreeChainMeta, []byte("tip_height"), tipVal[:])

	return c.db.Commit(batch)
}

// DifficultyAt returns the VisionX difficulty to use for the block at
// the given height, retargeting every RetargetWindow blocks based on
// observed spacing versus TargetBlockSeconds, clamped to a 4x swing in
// either direction.
func (c *Chain) DifficultyAt(height uint64) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if height == 0 || height < RetargetWindow {
		return c.params.GenesisDifficulty
	}
	if height%RetargetWindow != 0 {
		return c.headers[height-1].Difficulty
	}

	windowStart := c.headers[height-RetargetWindow]
	windowEnd := c.headers[height-1]
	actualSpan := windowEnd.Timestamp - windowStart.Timestamp
	targetSpan := int64(RetargetWindow * TargetBlockSeconds)
	if actualSpan <= 0 {
		actualSpan = 1
	}

	oldDifficulty := int64(windowEnd.Difficulty)
	newDifficulty := oldDifficulty * targetSpan / actualSpan

	minDifficulty := oldDifficulty / 4
	maxDifficulty := oldDifficulty * 4
	if newDifficulty < minDifficulty {
		newDifficulty = minDifficulty
	}
	if newDifficulty > maxDifficulty {
		newDifficulty = maxDifficulty
	}
	if newDifficulty <= 0 {
		newDifficulty = 1
	}
	return uint32(newDifficulty)
}
