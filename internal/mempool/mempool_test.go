// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"testing"

	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

func sampleTx(sender string, nonce uint64, tip cointype.Amount) *wire.Tx {
	return &wire.Tx{
		SenderPubKey: []byte(sender),
		Nonce:        nonce,
		Module:       "transfer",
		Method:       "send",
		Tip:          tip,
		FeeLimit:     1000,
		Sig:          []byte("sig"),
	}
}

func TestAdmitRejectsNonceGap(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 3, 10)
	if err := p.Admit(tx, 0); err == nil {
		t.Fatalf("expected nonce gap rejection")
	}
}

func TestAdmitAcceptsContiguousNonce(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 0, 10)
	if err := p.Admit(tx, 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 pooled tx, got %d", p.Len())
	}
}

func TestReplaceByFeeRejectsLowerTip(t *testing.T) {
	p := New(DefaultConfig())
	tx1 := sampleTx("alice", 0, 10)
	if err := p.Admit(tx1, 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	tx2 := sampleTx("alice", 0, 5)
	err := p.Admit(tx2, 0)
	if err == nil {
		t.Fatalf("expected rbf_tip_too_low rejection")
	}
}

func TestReplaceByFeeAcceptsStrictlyHigherTip(t *testing.T) {
	p := New(DefaultConfig())
	tx1 := sampleTx("alice", 0, 10)
	if err := p.Admit(tx1, 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	tx2 := sampleTx("alice", 0, 20)
	if err := p.Admit(tx2, 0); err != nil {
		t.Fatalf("expected replacement to succeed: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected exactly 1 pooled tx after replacement, got %d", p.Len())
	}
}

func TestBuildBlockFromMempoolOrdersByTip(t *testing.T) {
	p := New(DefaultConfig())
	low := sampleTx("alice", 0, 1)
	high := sampleTx("bob", 0, 100)
	if err := p.Admit(low, 0); err != nil {
		t.Fatalf("Admit low: %v", err)
	}
	if err := p.Admit(high, 0); err != nil {
		t.Fatalf("Admit high: %v", err)
	}

	out := p.BuildBlockFromMempool(1<<20, 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 txs in block, got %d", len(out))
	}
	if out[0] != high {
		t.Fatalf("expected higher-tip tx to be ordered first")
	}
}

func TestAdmitToleratesSingleForwardNonceGap(t *testing.T) {
	p := New(DefaultConfig())
	// Nonce 1 with expected 0: a one-slot gap, admitted so the missing
	// nonce can still arrive out of order.
	if err := p.Admit(sampleTx("alice", 1, 10), 0); err != nil {
		t.Fatalf("expected single forward gap to be tolerated: %v", err)
	}
	// Nonce 2 with expected 0 and highest pooled 1 is contiguous again.
	if err := p.Admit(sampleTx("alice", 2, 10), 0); err != nil {
		t.Fatalf("expected contiguous follow-up to be admitted: %v", err)
	}
}

func TestAdmitRejectsOversizedTx(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 0, 10)
	tx.Args = make([]byte, MaxTxSize+1)
	tx.FeeLimit = cointype.MaxAmount
	err := p.Admit(tx, 0)
	if err == nil {
		t.Fatalf("expected oversized transaction to be rejected")
	}
	var verr *verrors.Error
	if !errors.As(err, &verr) || verr.Reason != "tx_too_large" {
		t.Fatalf("expected tx_too_large, got %v", err)
	}
}

func TestAdmitRejectsFeeBelowIntrinsicCost(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 0, 10)
	tx.FeeLimit = IntrinsicCost(tx) + FeeBase - 1
	err := p.Admit(tx, 0)
	var verr *verrors.Error
	if !errors.As(err, &verr) || verr.Reason != "fee_below_intrinsic" {
		t.Fatalf("expected fee_below_intrinsic, got %v", err)
	}
}

func TestLaneRoutingByTipThresholdAndModule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CriticalTipThreshold = 50
	p := New(cfg)

	bulk := sampleTx("alice", 0, 10)
	if got := p.laneFor(bulk); got != LaneBulk {
		t.Fatalf("low-tip transfer should route to bulk, got %v", got)
	}

	highTip := sampleTx("bob", 0, 50)
	if got := p.laneFor(highTip); got != LaneCritical {
		t.Fatalf("tip at threshold should route to critical, got %v", got)
	}

	stakingCall := sampleTx("carol", 0, 1)
	stakingCall.Module = "staking"
	if got := p.laneFor(stakingCall); got != LaneCritical {
		t.Fatalf("staking call should route to critical regardless of tip, got %v", got)
	}
}

func TestAdmitUnderLoadReportsTipTooLow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBulkEntries = 1
	p := New(cfg)

	if err := p.Admit(sampleTx("alice", 0, 10), 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	err := p.AdmitUnderLoad(sampleTx("bob", 0, 5), 0)
	var verr *verrors.Error
	if !errors.As(err, &verr) || verr.Reason != "mempool_full_tip_too_low" {
		t.Fatalf("expected mempool_full_tip_too_low, got %v", err)
	}
}

func TestAdmitUnderLoadEvictsLowestPriorityNotLowestScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBulkEntries = 2
	p := New(cfg)

	// heavy pays a high tip over a large weight: its fee-per-weight
	// eviction score is the lowest in the pool, but its tip keeps it
	// well clear of the under-load lexicographic order's bottom.
	heavy := sampleTx("alice", 0, 100)
	heavy.Args = make([]byte, 1000)
	heavy.FeeLimit = 100_000
	if err := p.Admit(heavy, 0); err != nil {
		t.Fatalf("Admit heavy: %v", err)
	}

	// light pays a tiny tip over a tiny weight: the highest eviction
	// score, yet the true lowest-priority entry (tip 10).
	light := sampleTx("bob", 0, 10)
	if err := p.Admit(light, 0); err != nil {
		t.Fatalf("Admit light: %v", err)
	}

	// tip 50 outranks light under (tip desc, ts asc, weight asc), so it
	// must be admitted by displacing light, not compared against heavy.
	incoming := sampleTx("carol", 0, 50)
	if err := p.AdmitUnderLoad(incoming, 0); err != nil {
		t.Fatalf("AdmitUnderLoad: %v", err)
	}
	if _, ok := p.byHash[light.Hash()]; ok {
		t.Fatalf("expected the lowest-priority entry to have been evicted")
	}
	if _, ok := p.byHash[heavy.Hash()]; !ok {
		t.Fatalf("high-tip entry must survive under-load admission")
	}
	if _, ok := p.byHash[incoming.Hash()]; !ok {
		t.Fatalf("expected the outranking newcomer to be pooled")
	}
}

func TestSeenFilterDropsRelayedDuplicate(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 0, 10)
	if err := p.Admit(tx, 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	// Simulate the tx confirming and the same bytes being re-relayed:
	// the seen filter, not the nonce rule, should reject it.
	p.RemoveConfirmed([]*wire.Tx{tx})
	p.seen.add(tx.Hash())

	err := p.Admit(tx, 0)
	var verr *verrors.Error
	if !errors.As(err, &verr) || verr.Reason != "duplicate_tx" {
		t.Fatalf("expected duplicate_tx, got %v", err)
	}
}

func TestPruneExpiredRemovesNothingWhenFresh(t *testing.T) {
	p := New(DefaultConfig())
	tx := sampleTx("alice", 0, 10)
	if err := p.Admit(tx, 0); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if n := p.PruneExpired(); n != 0 {
		t.Fatalf("expected no entries pruned while fresh, got %d", n)
	}
}
