// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"sync"

	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/wire"
)

// announceSeenCapacity bounds the announcement dedup set; the oldest
// half is dropped when a newcomer would exceed it.
const announceSeenCapacity = 8192

// Announce dispositions returned to the announcing peer.
const (
	AnnounceQueued    = "queued"
	AnnounceDuplicate = "duplicate"
)

// AnnounceIndex deduplicates inbound block announcements so a block
// gossiped by many peers at once is only queued for fetch a single
// time. Duplicates are counted and dropped silently.
type AnnounceIndex struct {
	mu         sync.Mutex
	seen       map[chainhash.Hash]struct{}
	order      []chainhash.Hash
	duplicates uint64
}

// NewAnnounceIndex constructs an empty AnnounceIndex.
func NewAnnounceIndex() *AnnounceIndex {
	return &AnnounceIndex{seen: make(map[chainhash.Hash]struct{})}
}

// Observe records an inbound announcement, returning AnnounceQueued the
// first time a hash is seen and AnnounceDuplicate on every repeat.
func (a *AnnounceIndex) Observe(ann *wire.AnnounceBlock) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[ann.Hash]; ok {
		a.duplicates++
		return AnnounceDuplicate
	}

	if len(a.order) >= announceSeenCapacity {
		drop := a.order[:announceSeenCapacity/2]
		for _, old := range drop {
			delete(a.seen, old)
		}
		a.order = append([]chainhash.Hash(nil), a.order[announceSeenCapacity/2:]...)
	}
	a.seen[ann.Hash] = struct{}{}
	a.order = append(a.order, ann.Hash)
	return AnnounceQueued
}

// Duplicates returns how many duplicate announcements have been
// dropped since startup.
func (a *AnnounceIndex) Duplicates() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duplicates
}
