// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connmgr

import (
	"encoding/json"

	"github.com/visionchain/visiond/internal/store"
)

// SaveSnapshot persists every tracked address's backoff state so a
// restart doesn't forget which peers were misbehaving. The tracker is
// primarily in-memory; the snapshot is best-effort and flushed on the
// same cadence as peer memory.
func (t *DialTracker) SaveSnapshot(db *store.Store) error {
	t.mu.Lock()
	snapshot := make(map[string]DialBackoff, len(t.backoff))
	for addr, b := range t.backoff {
		snapshot[addr] = *b
	}
	t.mu.Unlock()

	batch := db.NewBatch()
	for addr, b := range snapshot {
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		batch.Put(store.TreeDialTracker, []byte(addr), raw)
	}
	return db.Commit(batch)
}

// LoadSnapshot restores backoff state persisted by SaveSnapshot,
// skipping any record that no longer parses rather than failing the
// whole load over one stale entry.
func (t *DialTracker) LoadSnapshot(db *store.Store) error {
	return db.Iterate(store.TreeDialTracker, func(key, value []byte) bool {
		var b DialBackoff
		if err := json.Unmarshal(value, &b); err != nil {
			log.Warnf("dropping unparseable dial-tracker snapshot entry %q: %v", key, err)
			return true
		}
		t.mu.Lock()
		t.backoff[string(key)] = &b
		t.mu.Unlock()
		return true
	})
}
