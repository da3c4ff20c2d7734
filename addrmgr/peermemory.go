// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrmgr persists what the node has learned about peers across
// restarts: uptime scoring, anchor/guardian promotion, and recency, so
// reconnect order survives a process restart instead of starting cold.
package addrmgr

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/visionchain/visiond/internal/store"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// anchorPromotionThreshold is the number of successful connections
// after which a peer is promoted to anchor status.
const anchorPromotionThreshold = 3

// leafWindow bounds how recently a peer must have been seen to count
// as a "leaf" peer for topology-diversity purposes.
const leafWindow = 72 * time.Hour

// skipFailCount and skipWindow gate the short-term "don't bother
// redialing yet" check independent of the longer-horizon DialBackoff
// cooldown tracker.
const (
	skipFailCount = 3
	skipWindow    = 300 * time.Second
)

// PeerMemory is what the node remembers about one peer across restarts.
type PeerMemory struct {
	PeerID              string    `json:"peer_id"`
	EBID                string    `json:"ebid"`
	LastIP              string    `json:"last_ip"`
	LastPort            uint16    `json:"last_port"`
	HTTPAPIPort         uint16    `json:"http_api_port"`
	LastSeen            time.Time `json:"last_seen"`
	IsGuardianCandidate bool      `json:"is_guardian_candidate"`
	UptimeScore         float64   `json:"uptime_score"`
	ConnectionCount     int       `json:"connection_count"`
	FailedAttempts      int       `json:"failed_attempts"`
	IsAnchor            bool      `json:"is_anchor"`
	LastFailAt          time.Time `json:"last_fail_at"`
	FailCount           int       `json:"fail_count"`
}

// FromHandshake constructs a fresh PeerMemory record from the
// information available right after a successful HELLO handshake.
func FromHandshake(peerID, ebid, ip string, port uint16) *PeerMemory {
	return &PeerMemory{
		PeerID:   peerID,
		EBID:     ebid,
		LastIP:   ip,
		LastPort: port,
		LastSeen: time.Now(),
	}
}

// Touch records a successful connection: it bumps the uptime score
// toward 1 with the fixed-point update score = min(1, 0.9*score + 0.1),
// increments the connection count, and promotes the peer to anchor
// status once it crosses anchorPromotionThreshold successes.
func (m *PeerMemory) Touch() {
	m.LastSeen = time.Now()
	m.ConnectionCount++
	m.UptimeScore = minF(1, 0.9*m.UptimeScore+0.1)
	m.FailCount = 0
	if m.ConnectionCount >= anchorPromotionThreshold {
		m.IsAnchor = true
	}
}

// RecordFailure records a failed connection attempt: it decays the
// uptime score toward 0 with score = max(0, 0.95*score) and bumps the
// short-term fail counter used by ShouldSkipTemporarily.
func (m *PeerMemory) RecordFailure() {
	m.FailedAttempts++
	m.FailCount++
	m.LastFailAt = time.Now()
	m.UptimeScore = maxF(0, 0.95*m.UptimeScore)
}

// ShouldSkipTemporarily reports whether recent failures mean this peer
// should be skipped in the next dial round without waiting for its
// full DialBackoff cooldown to expire.
func (m *PeerMemory) ShouldSkipTemporarily() bool {
	if m.FailCount < skipFailCount {
		return false
	}
	return time.Since(m.LastFailAt) < skipWindow
}

// DecayFailCount reduces the short-term fail counter by one, meant to
// be called on an hourly tick so transient trouble doesn't permanently
// mark a peer as unreliable.
func (m *PeerMemory) DecayFailCount() {
	if m.FailCount > 0 {
		m.FailCount--
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Memory manages the full set of remembered peers, persisted to a
// store.Store tree.
type Memory struct {
	mu    sync.RWMutex
	peers map[string]*PeerMemory
	db    *store.Store
}

// New constructs a Memory backed by db, loading any previously
// persisted peers.
func New(db *store.Store) (*Memory, error) {
	m := &Memory{peers: make(map[string]*PeerMemory), db: db}
	err := db.Iterate(store.TreePeerMemory, func(key, value []byte) bool {
		var pm PeerMemory
		if jsonErr := json.Unmarshal(value, &pm); jsonErr == nil {
			m.peers[pm.PeerID] = &pm
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d remembered peers", len(m.peers))
	return m, nil
}

// Upsert stores pm, replacing any existing record with the same PeerID.
func (m *Memory) Upsert(pm *PeerMemory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[pm.PeerID] = pm
}

// Get returns the remembered record for peerID, if any.
func (m *Memory) Get(peerID string) (*PeerMemory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pm, ok := m.peers[peerID]
	return pm, ok
}

// GetBestPeers returns up to n remembered peers, excluding any
// currently in ShouldSkipTemporarily's short-term penalty window, and
// orders the rest guardian candidates first, then by uptime score
// descending, then by last seen ascending — on equal scores the peer
// unvisited longest is tried first, so the rotation doesn't starve
// peers that merely haven't been dialed recently.
func (m *Memory) GetBestPeers(n int) []*PeerMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*PeerMemory, 0, len(m.peers))
	for _, pm := range m.peers {
		if pm.ShouldSkipTemporarily() {
			continue
		}
		all = append(all, pm)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsGuardianCandidate != all[j].IsGuardianCandidate {
			return all[i].IsGuardianCandidate
		}
		if all[i].UptimeScore != all[j].UptimeScore {
			return all[i].UptimeScore > all[j].UptimeScore
		}
		return all[i].LastSeen.Before(all[j].LastSeen)
	})
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// GetAnchorPeers returns every remembered anchor peer.
func (m *Memory) GetAnchorPeers() []*PeerMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*PeerMemory
	for _, pm := range m.peers {
		if pm.IsAnchor {
			out = append(out, pm)
		}
	}
	return out
}

// GetLeafPeers returns peers seen within the leaf window that are not
// anchors, a source of topology diversity distinct from the anchor set.
func (m *Memory) GetLeafPeers() []*PeerMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := time.Now().Add(-leafWindow)
	var out []*PeerMemory
	for _, pm := range m.peers {
		if !pm.IsAnchor && pm.LastSeen.After(cutoff) {
			out = append(out, pm)
		}
	}
	return out
}

// TouchPeer records a successful connection for peerID under the
// memory lock.
func (m *Memory) TouchPeer(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pm, ok := m.peers[peerID]; ok {
		pm.Touch()
	}
}

// FailPeer records a failed connection attempt for peerID under the
// memory lock.
func (m *Memory) FailPeer(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pm, ok := m.peers[peerID]; ok {
		pm.RecordFailure()
	}
}

// DecayAll calls DecayFailCount on every remembered peer, meant to be
// driven by an hourly background tick.
func (m *Memory) DecayAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pm := range m.peers {
		pm.DecayFailCount()
	}
}

// FlushToDB persists every remembered peer to the store.
func (m *Memory) FlushToDB() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batch := m.db.NewBatch()
	for id, pm := range m.peers {
		b, err := json.Marshal(pm)
		if err != nil {
			return err
		}
		batch.Put(store.TreePeerMemory, []byte(id), b)
	}
	return m.db.Commit(batch)
}
