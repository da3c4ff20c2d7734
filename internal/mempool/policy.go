// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"
	"time"

	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

// isHigherPriority reports whether a should be preferred over b when
// the pool is under load: higher effective tip first, then earlier
// arrival, then lower weight (smaller transactions break remaining
// ties in the submitter's favor).
func isHigherPriority(a, b *entry) bool {
	at, bt := a.tx.EffectiveTip(), b.tx.EffectiveTip()
	if at != bt {
		return at > bt
	}
	if !a.receivedAt.Equal(b.receivedAt) {
		return a.receivedAt.Before(b.receivedAt)
	}
	return a.tx.Weight() < b.tx.Weight()
}

// lowestPriorityBulkLocked returns the bulk entry that ranks last under
// the under-load lexicographic order (tip desc, arrival asc, weight
// asc). This is a distinct rule from the fee-per-weight eviction score:
// the score decides routine room-making, the lexicographic order
// decides who yields when the whole pool is saturated.
func (p *Pool) lowestPriorityBulkLocked() *entry {
	var worst *entry
	for _, e := range p.byHash {
		if e.lane != LaneBulk {
			continue
		}
		if worst == nil || isHigherPriority(worst, e) {
			worst = e
		}
	}
	return worst
}

// AdmitUnderLoad admits an incoming transaction when the pool is at
// capacity iff it strictly outranks the current lowest-priority bulk
// entry under the lexicographic order, evicting that entry to make
// room; otherwise the newcomer is rejected.
func (p *Pool) AdmitUnderLoad(tx *wire.Tx, expectedNonce uint64) error {
	if err := ValidateForMempool(tx); err != nil {
		return err
	}

	p.mu.Lock()
	if p.bulkCountLocked() >= p.cfg.MaxBulkEntries {
		victim := p.lowestPriorityBulkLocked()
		candidate := &entry{tx: tx, receivedAt: time.Now()}
		if victim == nil || !isHigherPriority(candidate, victim) {
			p.mu.Unlock()
			return verrors.ResourceExhausted("mempool_full_tip_too_low",
				"mempool full; tip too low under load")
		}
		p.removeLocked(victim)
	}
	p.mu.Unlock()

	return p.Admit(tx, expectedNonce)
}

// BuildBlockFromMempool assembles an ordered transaction list for a new
// block: every available critical-lane transaction first (sorted by
// effective tip descending, then fee-per-weight descending), then
// bulk-lane transactions sorted by fee-per-weight descending, until
// weightLimit or maxTxs is reached. Only nonce-contiguous transactions
// per sender are included.
func (p *Pool) BuildBlockFromMempool(weightLimit uint32, maxTxs int) []*wire.Tx {
	p.mu.Lock()
	defer p.mu.Unlock()

	var critical, bulk []*entry
	for _, e := range p.byHash {
		if e.lane == LaneCritical {
			critical = append(critical, e)
		} else {
			bulk = append(bulk, e)
		}
	}

	sort.Slice(critical, func(i, j int) bool {
		ti, tj := critical[i].tx.EffectiveTip(), critical[j].tx.EffectiveTip()
		if ti != tj {
			return ti > tj
		}
		return evictionIndex(critical[i].tx) > evictionIndex(critical[j].tx)
	})
	sort.Slice(bulk, func(i, j int) bool {
		return evictionIndex(bulk[i].tx) > evictionIndex(bulk[j].tx)
	})

	included := make(map[string]uint64) // sender -> highest included nonce + 1
	var out []*wire.Tx
	var usedWeight uint32

	take := func(candidates []*entry) {
		for _, e := range candidates {
			if len(out) >= maxTxs {
				return
			}
			w := e.tx.Weight()
			if usedWeight+w > weightLimit {
				continue
			}
			sender := senderKey(e.tx)
			next, seen := included[sender]
			if seen && e.tx.Nonce != next {
				continue
			}
			if !seen {
				// First transaction taken for this sender in this block
				// must be the lowest pooled nonce to avoid gaps.
				if lowest, ok := lowestNonce(p.bySender[sender]); ok && lowest != e.tx.Nonce {
					continue
				}
			}
			out = append(out, e.tx)
			usedWeight += w
			included[sender] = e.tx.Nonce + 1
		}
	}

	take(critical)
	take(bulk)
	return out
}

func lowestNonce(m map[uint64]*entry) (uint64, bool) {
	first := true
	var min uint64
	for n := range m {
		if first || n < min {
			min = n
			first = false
		}
	}
	return min, !first
}

// RateLimitHeaders are the values the P2P layer surfaces as
// X-RateLimit-* on throttled responses.
type RateLimitHeaders struct {
	Limit     int
	Remaining int
	ResetUnix int64
}

// BuildRateLimitHeaders derives the header values for a bucket with the
// given capacity, remaining tokens, and next-refill time.
func BuildRateLimitHeaders(capacity, remaining int, resetAt time.Time) RateLimitHeaders {
	return RateLimitHeaders{
		Limit:     capacity,
		Remaining: remaining,
		ResetUnix: resetAt.Unix(),
	}
}
