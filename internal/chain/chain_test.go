// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/internal/store"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

func newTestChain(t *testing.T) *Chain {
	t.Helper()
	dir, err := os.MkdirTemp("", "visiond-chain-test")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	params := chaincfg.RegNetParams()
	genesis := wire.BlockHeader{Version: 1, Height: 0, Difficulty: params.GenesisDifficulty}
	return New(params, db, genesis)
}

// nextHeader builds a minimal valid header extending c's tip.
func nextHeader(c *Chain, timestamp int64) wire.BlockHeader {
	return wire.BlockHeader{
		Height:     c.BestHeight() + 1,
		PrevHash:   c.BestHash(),
		Timestamp:  timestamp,
		Difficulty: c.params.GenesisDifficulty,
	}
}

func TestAppendBlockRejectsWrongHeight(t *testing.T) {
	c := newTestChain(t)
	bad := nextHeader(c, 1)
	bad.Height = 5
	if err := c.AppendBlock(bad, nil); err == nil {
		t.Fatalf("expected error for non-contiguous height")
	}
}

func TestAppendBlockRejectsWrongPrevHash(t *testing.T) {
	c := newTestChain(t)
	bad := nextHeader(c, 1)
	wrongHeader := wire.BlockHeader{Height: 99}
	bad.PrevHash = wrongHeader.Hash()
	if err := c.AppendBlock(bad, nil); err == nil {
		t.Fatalf("expected error for mismatched prev hash")
	}
}

func TestAppendBlockRejectsZeroDifficulty(t *testing.T) {
	c := newTestChain(t)
	bad := nextHeader(c, 1)
	bad.Difficulty = 0
	if err := c.AppendBlock(bad, nil); err == nil {
		t.Fatalf("expected error for zero difficulty")
	}
}

func TestAppendBlockSucceedsAndAdvancesTip(t *testing.T) {
	c := newTestChain(t)
	next := nextHeader(c, 1)
	if err := c.AppendBlock(next, nil); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if c.BestHeight() != 1 {
		t.Fatalf("expected tip height 1, got %d", c.BestHeight())
	}
	if _, ok := c.BlockByHash(next.Hash()); !ok {
		t.Fatalf("expected appended block to be retrievable by hash")
	}
}

func TestAppendBlockEnforcesNonceContiguity(t *testing.T) {
	c := newTestChain(t)
	sender := []byte("sender-a")
	badTx := &wire.Tx{Nonce: 1, SenderPubKey: sender} // expected nonce is 0
	header := nextHeader(c, 1)
	header.TxRoot = wire.ComputeTxRoot([]*wire.Tx{badTx})
	if err := c.AppendBlock(header, []*wire.Tx{badTx}); err == nil {
		t.Fatalf("expected nonce gap error for tx %v", spew.Sdump(badTx))
	}
	if c.NextNonce(string(sender)) != 0 {
		t.Fatalf("rejected block must not mutate the nonce map")
	}
}

func TestAppendBlockBumpsNoncePerIncludedTx(t *testing.T) {
	c := newTestChain(t)
	sender := []byte("sender-b")
	txs := []*wire.Tx{
		{Nonce: 0, SenderPubKey: sender},
		{Nonce: 1, SenderPubKey: sender},
	}
	header := nextHeader(c, 1)
	header.TxRoot = wire.ComputeTxRoot(txs)
	if err := c.AppendBlock(header, txs); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if got := c.NextNonce(string(sender)); got != 2 {
		t.Fatalf("expected next nonce 2 after two confirmed txs, got %d", got)
	}
}

func TestAppendBlockCoinbasePlacement(t *testing.T) {
	c := newTestChain(t)
	mint := &wire.Tx{Nonce: 1, SenderPubKey: []byte("miner"), Module: wire.ModuleMint, Method: "coinbase"}
	pay := &wire.Tx{Nonce: 0, SenderPubKey: []byte("alice"), Module: "transfer", Method: "send"}

	// Mint at index 0 is exempt from account-nonce accounting.
	txs := []*wire.Tx{mint, pay}
	header := nextHeader(c, 1)
	header.TxRoot = wire.ComputeTxRoot(txs)
	if err := c.AppendBlock(header, txs); err != nil {
		t.Fatalf("AppendBlock with leading coinbase: %v", err)
	}
	if c.NextNonce("miner") != 0 {
		t.Fatalf("coinbase must not touch the nonce map")
	}

	// A mint anywhere else in the block is rejected.
	mint2 := &wire.Tx{Nonce: 2, SenderPubKey: []byte("miner"), Module: wire.ModuleMint, Method: "coinbase"}
	pay2 := &wire.Tx{Nonce: 1, SenderPubKey: []byte("alice"), Module: "transfer", Method: "send"}
	bad := []*wire.Tx{pay2, mint2}
	header2 := nextHeader(c, 2)
	header2.TxRoot = wire.ComputeTxRoot(bad)
	if err := c.AppendBlock(header2, bad); err == nil {
		t.Fatalf("expected rejection of a mint transaction outside index 0")
	}
}

func TestProcessBlockBuffersOrphanAndConnectsLater(t *testing.T) {
	c := newTestChain(t)

	block1 := nextHeader(c, 1)
	block2 := wire.BlockHeader{
		Height:     2,
		PrevHash:   block1.Hash(),
		Timestamp:  2,
		Difficulty: c.params.GenesisDifficulty,
	}

	// Child arrives before parent: buffered, not applied.
	err := c.ProcessBlock(block2, nil)
	var verr *verrors.Error
	if !errors.As(err, &verr) || verr.Reason != "orphan_parent_unknown" {
		t.Fatalf("expected orphan_parent_unknown, got %v", err)
	}
	if c.BestHeight() != 0 || c.OrphanCount() != 1 {
		t.Fatalf("expected tip 0 with 1 buffered orphan, got tip %d orphans %d",
			c.BestHeight(), c.OrphanCount())
	}

	// Parent arrives: both connect.
	if err := c.ProcessBlock(block1, nil); err != nil {
		t.Fatalf("ProcessBlock parent: %v", err)
	}
	if c.BestHeight() != 2 {
		t.Fatalf("expected buffered orphan to connect, tip is %d", c.BestHeight())
	}
	if c.OrphanCount() != 0 {
		t.Fatalf("expected orphan buffer drained, %d remain", c.OrphanCount())
	}
}

func TestProcessBlockRejectsDuplicate(t *testing.T) {
	c := newTestChain(t)
	block1 := nextHeader(c, 1)
	if err := c.ProcessBlock(block1, nil); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}
	if err := c.ProcessBlock(block1, nil); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
}

func TestOrphanBufferEvictsOldestAtCapacity(t *testing.T) {
	c := newTestChain(t)
	first := wire.BlockHeader{Height: 10, Timestamp: 1, Difficulty: 1}
	c.addOrphanLocked(&wire.Block{Header: first})
	for i := 0; i < maxOrphans; i++ {
		h := wire.BlockHeader{Height: 100 + uint64(i), Timestamp: int64(i), Difficulty: 1}
		c.addOrphanLocked(&wire.Block{Header: h})
	}
	if c.OrphanCount() != maxOrphans {
		t.Fatalf("expected orphan buffer capped at %d, got %d", maxOrphans, c.OrphanCount())
	}
	if _, ok := c.orphans[first.Hash()]; ok {
		t.Fatalf("expected oldest orphan to have been evicted")
	}
}

func TestAppendBlockRunsPoWChecker(t *testing.T) {
	c := newTestChain(t)
	powErr := verrors.Reject("visionx_target_not_met", "digest exceeds target")
	c.SetPoWChecker(func(h wire.BlockHeader) error { return powErr })

	next := nextHeader(c, 1)
	if err := c.AppendBlock(next, nil); !errors.Is(err, powErr) {
		t.Fatalf("expected the installed PoW checker's error, got %v", err)
	}
}

func TestDifficultyAtHoldsBeforeRetargetWindow(t *testing.T) {
	c := newTestChain(t)
	if got := c.DifficultyAt(1); got != c.params.GenesisDifficulty {
		t.Fatalf("expected genesis difficulty before first retarget, got %d", got)
	}
}

func TestAppendBlockRejectsTimestampTooFarInFuture(t *testing.T) {
	c := newTestChain(t)
	bad := nextHeader(c, time.Now().Add(11*time.Second).Unix())
	if err := c.AppendBlock(bad, nil); err == nil {
		t.Fatalf("expected error for timestamp %ds ahead of now", 11)
	}
}

func TestAppendBlockAcceptsTimestampWithinFutureDrift(t *testing.T) {
	c := newTestChain(t)
	header := nextHeader(c, time.Now().Add(9*time.Second).Unix())
	if err := c.AppendBlock(header, nil); err != nil {
		t.Fatalf("AppendBlock with timestamp %ds ahead of now: %v", 9, err)
	}
}

func TestAppendBlockEnforcesMedianTimestampPastWindow(t *testing.T) {
	c := newTestChain(t)
	base := time.Now().Add(-1 * time.Hour).Unix()
	for height := uint64(1); height <= medianTimestampWindow; height++ {
		header := nextHeader(c, base+int64(height))
		if err := c.AppendBlock(header, nil); err != nil {
			t.Fatalf("AppendBlock height %d: %v", height, err)
		}
	}

	// The median of heights 1..11's timestamps is the timestamp at
	// height 6 (base+6). A height-12 block must land strictly after it,
	// even though that's still before the immediately preceding block's
	// own timestamp (base+11) would otherwise suggest.
	medianTs := base + 6

	atMedian := nextHeader(c, medianTs)
	if err := c.AppendBlock(atMedian, nil); err == nil {
		t.Fatalf("expected error for timestamp equal to the median of the last 11 timestamps")
	}

	pastMedian := nextHeader(c, medianTs+1)
	if err := c.AppendBlock(pastMedian, nil); err != nil {
		t.Fatalf("AppendBlock with timestamp past the median: %v", err)
	}
}

func TestDifficultyAtClampsToQuadrupleBound(t *testing.T) {
	c := newTestChain(t)
	oldDifficulty := uint32(1000)

	// Fill indices 1..RetargetWindow-1 as placeholders so the slice
	// lines up positionally; only index 0 (genesis, timestamp 0) and
	// index RetargetWindow-1 (the retarget window's last block) feed
	// DifficultyAt's computation below.
	for height := uint64(1); height < RetargetWindow; height++ {
		c.headers = append(c.headers, wire.BlockHeader{Height: height})
	}
	// The whole window elapsed in a single second, far faster than
	// TargetBlockSeconds*RetargetWindow, so the raw retarget ratio
	// would swing difficulty up by far more than 4x without the clamp.
	c.headers[RetargetWindow-1] = wire.BlockHeader{
		Height:     RetargetWindow - 1,
		Timestamp:  1,
		Difficulty: oldDifficulty,
	}
	c.headers = append(c.headers, wire.BlockHeader{Height: RetargetWindow})
	c.tipHeight = RetargetWindow

	got := c.DifficultyAt(RetargetWindow)
	want := oldDifficulty * 4
	if got != want {
		t.Fatalf("DifficultyAt clamp: got %d, want %d (4x old difficulty): %s",
			got, want, spew.Sdump(c.headers[RetargetWindow-1]))
	}
}
