// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockalloc reserves a guaranteed share of a block's weight
// budget for the mempool's critical lane, giving consensus-critical
// module calls (staking, validator operations) a floor of space even
// when the bulk lane is saturated with higher-aggregate fee pressure.
package blockalloc

import (
	"github.com/decred/slog"

	"github.com/visionchain/visiond/internal/mempool"
	"github.com/visionchain/visiond/internal/wire"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Allocator manages the split of a block's weight budget between the
// critical and bulk mempool lanes, following a guaranteed-floor /
// proportional-overflow strategy analogous to the ratio split used
// elsewhere in this lineage for fixed-share resource division.
type Allocator struct {
	maxBlockWeight     uint32
	criticalAllocation float64 // guaranteed floor, e.g. 0.10 = 10%
}

// NewAllocator creates an Allocator with the given block weight budget
// and guaranteed critical-lane floor (as a fraction of maxBlockWeight).
func NewAllocator(maxBlockWeight uint32, criticalAllocation float64) *Allocator {
	return &Allocator{
		maxBlockWeight:     maxBlockWeight,
		criticalAllocation: criticalAllocation,
	}
}

// LaneAllocation describes the space given to one lane.
type LaneAllocation struct {
	BaseAllocation  uint32
	FinalAllocation uint32
	PendingWeight   uint32
	UsedWeight      uint32
}

// AllocationResult is the complete critical/bulk split for a block.
type AllocationResult struct {
	Critical LaneAllocation
	Bulk     LaneAllocation
}

// Allocate computes the weight split given the pending weight queued in
// each lane.
//
// Algorithm:
//  1. If the bulk lane has no pending weight, the critical lane gets the
//     entire block (early exit).
//  2. Otherwise, split the block by the configured floor, then hand the
//     unused part of either lane's base allocation to the other lane, up
//     to that lane's unmet demand.
func (al *Allocator) Allocate(criticalPending, bulkPending uint32) *AllocationResult {
	if bulkPending == 0 {
		return &AllocationResult{
			Critical: LaneAllocation{
				BaseAllocation:  al.maxBlockWeight,
				FinalAllocation: al.maxBlockWeight,
				PendingWeight:   criticalPending,
				UsedWeight:      min32(criticalPending, al.maxBlockWeight),
			},
		}
	}

	criticalBase := uint32(float64(al.maxBlockWeight) * al.criticalAllocation)
	bulkBase := al.maxBlockWeight - criticalBase

	criticalUsed := min32(criticalPending, criticalBase)
	bulkUsed := min32(bulkPending, bulkBase)

	criticalUnused := criticalBase - criticalUsed
	bulkUnused := bulkBase - bulkUsed

	result := &AllocationResult{
		Critical: LaneAllocation{BaseAllocation: criticalBase, FinalAllocation: criticalBase, PendingWeight: criticalPending, UsedWeight: criticalUsed},
		Bulk:     LaneAllocation{BaseAllocation: bulkBase, FinalAllocation: bulkBase, PendingWeight: bulkPending, UsedWeight: bulkUsed},
	}

	// Hand the critical lane's unused floor to the bulk lane if it still
	// has unmet demand, and vice versa.
	criticalNeed := int64(criticalPending) - int64(criticalUsed)
	bulkNeed := int64(bulkPending) - int64(bulkUsed)

	if criticalUnused > 0 && bulkNeed > 0 {
		give := min32(criticalUnused, uint32(bulkNeed))
		result.Bulk.FinalAllocation += give
		result.Bulk.UsedWeight += give
	}
	if bulkUnused > 0 && criticalNeed > 0 {
		give := min32(bulkUnused, uint32(criticalNeed))
		result.Critical.FinalAllocation += give
		result.Critical.UsedWeight += give
	}

	if result.Critical.FinalAllocation+result.Bulk.FinalAllocation > al.maxBlockWeight {
		log.Warnf("block space allocation overflow: critical=%d bulk=%d exceeds max=%d",
			result.Critical.FinalAllocation, result.Bulk.FinalAllocation, al.maxBlockWeight)
	}

	return result
}

// SelectTxsForBlock assembles a block's transaction list by running
// Allocate and passing the sum of both lanes' final allocations to the
// mempool's own fee-ordered builder as a single weight budget. The
// per-lane split is not enforced on the selected transactions.
func SelectTxsForBlock(pool *mempool.Pool, al *Allocator, criticalPending, bulkPending uint32, maxTxs int) []*wire.Tx {
	alloc := al.Allocate(criticalPending, bulkPending)
	total := alloc.Critical.FinalAllocation + alloc.Bulk.FinalAllocation
	return pool.BuildBlockFromMempool(total, maxTxs)
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
