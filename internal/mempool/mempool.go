// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the two-lane (critical/bulk) pending
// transaction pool: admission, replace-by-fee, fee-per-weight eviction
// scoring, and TTL expiry.
package mempool

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// MaxTxSize is the maximum serialized transaction size admitted to the
// pool, matching the consensus limit on block inclusion.
const MaxTxSize = 64 * 1024

// FeeBase is the flat fee floor every transaction's FeeLimit must cover
// on top of its intrinsic cost.
const FeeBase cointype.Amount = 100

// intrinsicCostPerByte prices a transaction's serialized size into its
// minimum fee.
const intrinsicCostPerByte = 10

// IntrinsicCost returns the minimum cost of carrying tx in a block,
// derived from its weight; FeeLimit must cover this plus FeeBase.
func IntrinsicCost(tx *wire.Tx) cointype.Amount {
	return cointype.Amount(int64(tx.Weight()) * intrinsicCostPerByte)
}

// Lane is one of the two admission/eviction lanes a transaction can
// occupy.
type Lane int

const (
	// LaneCritical holds high-tip transactions and consensus-critical
	// module calls; it is never evicted by fee pressure, only by TTL or
	// explicit replacement.
	LaneCritical Lane = iota
	// LaneBulk holds ordinary transactions, scored and evicted by
	// fee-per-weight under memory pressure.
	LaneBulk
)

// criticalModules names modules whose calls are always routed to the
// critical lane regardless of the tip they pay.
var criticalModules = map[string]bool{
	"staking":   true,
	"validator": true,
	"consensus": true,
}

// evictionScale is the fixed-point scale factor applied to the
// fee-per-weight eviction score.
const evictionScale = 1_000_000

// entry is a pooled transaction plus the bookkeeping the pool needs for
// eviction and TTL sweeping.
type entry struct {
	tx         *wire.Tx
	hash       chainhash.Hash
	lane       Lane
	receivedAt time.Time
}

// evictionIndex returns the fee-per-weight score used to rank bulk-lane
// entries for eviction: lower score evicts first.
func evictionIndex(tx *wire.Tx) int64 {
	weight := tx.Weight()
	if weight == 0 {
		return 0
	}
	return int64(tx.EffectiveTip()) * evictionScale / int64(weight)
}

// Config tunes pool capacity, lane routing, and TTL behavior.
type Config struct {
	MaxCriticalEntries int
	MaxBulkEntries     int
	TTL                time.Duration

	// CriticalTipThreshold routes any transaction paying at least this
	// effective tip into the critical lane.
	CriticalTipThreshold cointype.Amount
}

// DefaultConfig returns the pool's default tuning.
func DefaultConfig() Config {
	return Config{
		MaxCriticalEntries:   4_096,
		MaxBulkEntries:       65_536,
		TTL:                  2 * time.Hour,
		CriticalTipThreshold: 100_000,
	}
}

// seenCapacity bounds the seen-transaction filter; the oldest half is
// dropped when a newcomer would exceed it.
const seenCapacity = 8192

// seenFilter is a bounded set of recently observed transaction hashes,
// used to drop re-relayed duplicates before any admission work.
type seenFilter struct {
	set   map[chainhash.Hash]struct{}
	order []chainhash.Hash
}

func newSeenFilter() *seenFilter {
	return &seenFilter{set: make(map[chainhash.Hash]struct{})}
}

func (f *seenFilter) contains(h chainhash.Hash) bool {
	_, ok := f.set[h]
	return ok
}

func (f *seenFilter) add(h chainhash.Hash) {
	if _, ok := f.set[h]; ok {
		return
	}
	if len(f.order) >= seenCapacity {
		drop := f.order[:seenCapacity/2]
		for _, old := range drop {
			delete(f.set, old)
		}
		f.order = append([]chainhash.Hash(nil), f.order[seenCapacity/2:]...)
	}
	f.set[h] = struct{}{}
	f.order = append(f.order, h)
}

func (f *seenFilter) remove(h chainhash.Hash) {
	delete(f.set, h)
}

// Pool is the two-lane pending transaction pool.
type Pool struct {
	mu  sync.Mutex
	cfg Config

	bySender map[string]map[uint64]*entry // raw sender pubkey -> nonce -> entry
	byHash   map[chainhash.Hash]*entry
	seen     *seenFilter
}

// New constructs an empty Pool.
func New(cfg Config) *Pool {
	return &Pool{
		cfg:      cfg,
		bySender: make(map[string]map[uint64]*entry),
		byHash:   make(map[chainhash.Hash]*entry),
		seen:     newSeenFilter(),
	}
}

func senderKey(tx *wire.Tx) string {
	return string(tx.SenderPubKey)
}

// laneFor routes a transaction: consensus-critical modules and
// transactions paying at least the configured tip threshold go to the
// critical lane, everything else to bulk.
func (p *Pool) laneFor(tx *wire.Tx) Lane {
	if criticalModules[tx.Module] || tx.EffectiveTip() >= p.cfg.CriticalTipThreshold {
		return LaneCritical
	}
	return LaneBulk
}

// ValidateForMempool performs context-free sanity checks on tx before
// it is considered for admission: non-empty sender/signature, size and
// amount bounds, and a fee limit covering the intrinsic cost.
func ValidateForMempool(tx *wire.Tx) error {
	if len(tx.SenderPubKey) == 0 {
		return verrors.Validation("empty_sender", "transaction has no sender public key")
	}
	if tx.Module == wire.ModuleMint {
		return verrors.Validation("coinbase_in_mempool", "mint transactions are block-only")
	}
	if len(tx.Sig) == 0 {
		return verrors.Validation("empty_signature", "transaction is unsigned")
	}
	if tx.Module == "" || tx.Method == "" {
		return verrors.Validation("missing_module_method", "transaction has no module/method target")
	}
	if tx.Weight() > MaxTxSize {
		return verrors.Validation("tx_too_large", "serialized transaction exceeds 64 KiB")
	}
	if !cointype.IsValidAmount(tx.FeeLimit) {
		return verrors.Validation("bad_fee_limit", "fee limit is out of range")
	}
	if tx.FeeLimit < IntrinsicCost(tx)+FeeBase {
		return verrors.Validation("fee_below_intrinsic",
			"fee limit does not cover the transaction's intrinsic cost plus the base fee")
	}
	return nil
}

// Admit attempts to insert tx into the pool, expectedNonce being the
// account's next contiguous nonce per current chain state. A nonce one
// past the next contiguous value is tolerated (the gap can be filled by
// a later arrival); anything further forward is rejected. When the
// relevant lane is full the call falls through to eviction or rejection
// per the lane's policy.
func (p *Pool) Admit(tx *wire.Tx, expectedNonce uint64) error {
	if err := ValidateForMempool(tx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sender := senderKey(tx)
	lane := p.laneFor(tx)
	bySenderNonces := p.bySender[sender]

	if existing, ok := bySenderNonces[tx.Nonce]; ok {
		return p.replaceLocked(existing, tx, lane)
	}

	txHash := tx.Hash()
	if p.seen.contains(txHash) {
		return verrors.Validation("duplicate_tx", "transaction has already been observed")
	}

	// New nonce for this sender: it must be contiguous with either the
	// chain-reported next nonce or the highest nonce already pooled,
	// with a single-slot forward gap tolerated.
	highestPooled, anyPooled := highestNonce(bySenderNonces)
	wantNonce := expectedNonce
	if anyPooled {
		wantNonce = highestPooled + 1
	}
	if tx.Nonce < wantNonce || tx.Nonce > wantNonce+1 {
		return verrors.Validation("nonce_gap", "transaction nonce is not contiguous with account state")
	}

	if err := p.ensureCapacityLocked(lane, tx); err != nil {
		return err
	}

	e := &entry{tx: tx, hash: txHash, lane: lane, receivedAt: time.Now()}
	if bySenderNonces == nil {
		bySenderNonces = make(map[uint64]*entry)
		p.bySender[sender] = bySenderNonces
	}
	bySenderNonces[tx.Nonce] = e
	p.byHash[e.hash] = e
	p.seen.add(txHash)
	return nil
}

func highestNonce(m map[uint64]*entry) (uint64, bool) {
	first := true
	var max uint64
	for n := range m {
		if first || n > max {
			max = n
			first = false
		}
	}
	return max, !first
}

// replaceLocked implements strict-tip-improvement replace-by-fee: the
// replacement must pay a strictly higher effective tip than the entry
// it displaces, otherwise it is rejected with reason "rbf_tip_too_low".
func (p *Pool) replaceLocked(existing *entry, tx *wire.Tx, lane Lane) error {
	if tx.EffectiveTip() <= existing.tx.EffectiveTip() {
		return verrors.Validation("rbf_tip_too_low", "replacement transaction does not strictly improve the tip")
	}
	delete(p.byHash, existing.hash)
	p.seen.remove(existing.hash)
	e := &entry{tx: tx, hash: tx.Hash(), lane: lane, receivedAt: time.Now()}
	p.bySender[senderKey(tx)][tx.Nonce] = e
	p.byHash[e.hash] = e
	p.seen.add(e.hash)
	return nil
}

// ensureCapacityLocked makes room for an incoming transaction in its
// lane, evicting the lowest fee-per-weight bulk entry if the bulk lane
// is full, or rejecting outright if the critical lane is full (it is
// never evicted by fee pressure).
func (p *Pool) ensureCapacityLocked(lane Lane, incoming *wire.Tx) error {
	switch lane {
	case LaneCritical:
		if p.criticalCountLocked() >= p.cfg.MaxCriticalEntries {
			return verrors.ResourceExhausted("critical_lane_full", "critical lane is at capacity")
		}
	case LaneBulk:
		if p.bulkCountLocked() >= p.cfg.MaxBulkEntries {
			victim := p.lowestScoringBulkLocked()
			if victim == nil || evictionIndex(incoming) <= evictionIndex(victim.tx) {
				return verrors.ResourceExhausted("bulk_lane_full", "bulk lane is at capacity and incoming fee does not exceed the lowest entry")
			}
			p.removeLocked(victim)
		}
	}
	return nil
}

func (p *Pool) criticalCountLocked() int {
	n := 0
	for _, e := range p.byHash {
		if e.lane == LaneCritical {
			n++
		}
	}
	return n
}

func (p *Pool) bulkCountLocked() int {
	n := 0
	for _, e := range p.byHash {
		if e.lane == LaneBulk {
			n++
		}
	}
	return n
}

func (p *Pool) lowestScoringBulkLocked() *entry {
	var worst *entry
	var worstScore int64
	first := true
	for _, e := range p.byHash {
		if e.lane != LaneBulk {
			continue
		}
		score := evictionIndex(e.tx)
		if first || score < worstScore {
			worst, worstScore = e, score
			first = false
		}
	}
	return worst
}

func (p *Pool) removeLocked(e *entry) {
	delete(p.byHash, e.hash)
	p.seen.remove(e.hash)
	sender := senderKey(e.tx)
	if m, ok := p.bySender[sender]; ok {
		delete(m, e.tx.Nonce)
		if len(m) == 0 {
			delete(p.bySender, sender)
		}
	}
}

// RemoveConfirmed drops every transaction included in a confirmed block
// from the pool, called under the same lock window as block apply so
// mempool admission stays linearizable with chain state.
func (p *Pool) RemoveConfirmed(txs []*wire.Tx) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		if e, ok := p.byHash[tx.Hash()]; ok {
			p.removeLocked(e)
		}
	}
}

// PruneExpired removes every entry older than the pool's TTL, evicting
// each from the seen filter as well, and returns the number of entries
// removed. Sweep size and duration are logged for operators watching
// pool churn.
func (p *Pool) PruneExpired() int {
	start := time.Now()

	p.mu.Lock()
	cutoff := start.Add(-p.cfg.TTL)
	removed := 0
	for _, e := range p.byHash {
		if e.receivedAt.Before(cutoff) {
			p.removeLocked(e)
			removed++
		}
	}
	p.mu.Unlock()

	if removed > 0 {
		log.Debugf("mempool TTL sweep removed %d entries in %s", removed, time.Since(start))
	}
	return removed
}

// Len returns the total number of pooled transactions across both
// lanes.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}
