// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connmgr

import (
	"fmt"
	"os"
	"testing"

	"github.com/visionchain/visiond/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "visiond-connmgr-test")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	db, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close(); os.RemoveAll(dir) })
	return db
}

func TestSnapshotRoundTripPreservesBackoffState(t *testing.T) {
	db := newTestStore(t)

	tr := New(nil)
	tr.Record("peer-a.example:9108", ReasonTimeout)
	tr.Record("peer-a.example:9108", ReasonTimeout)
	tr.Record("peer-b.example:9108", ReasonConnectionRefused)
	tr.RecordSuccess("peer-c.example:9108")

	if err := tr.SaveSnapshot(db); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := New(nil)
	if err := restored.LoadSnapshot(db); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	a, ok := restored.GetBackoff("peer-a.example:9108")
	if !ok || a.FailStreak != 2 || a.LastFailReason != ReasonTimeout {
		t.Fatalf("peer-a state not restored: %+v ok=%v", a, ok)
	}
	c, ok := restored.GetBackoff("peer-c.example:9108")
	if !ok || c.TotalSuccesses != 1 {
		t.Fatalf("peer-c success count not restored: %+v ok=%v", c, ok)
	}
}

func TestRecentFailuresRingDropsOldest(t *testing.T) {
	tr := New(nil)
	for i := 0; i < failureRingCapacity+10; i++ {
		tr.Record(fmt.Sprintf("peer-%d.example:9108", i), ReasonTimeout)
	}

	recent := tr.RecentFailures()
	if len(recent) != failureRingCapacity {
		t.Fatalf("ring holds %d records, want %d", len(recent), failureRingCapacity)
	}
	if recent[0].Addr != "peer-10.example:9108" {
		t.Fatalf("expected the 10 oldest records dropped, oldest is %s", recent[0].Addr)
	}
}
