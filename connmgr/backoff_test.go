// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connmgr

import (
	"testing"
	"time"
)

func TestCalculateCooldownMatchesReasonStreakTable(t *testing.T) {
	tests := []struct {
		reason     FailureReason
		isSeed     bool
		wantBySlot [5]time.Duration
	}{
		{ReasonConnectionRefused, false, [5]time.Duration{
			3600 * time.Second, 3600 * time.Second, 7200 * time.Second, 14400 * time.Second, 43200 * time.Second,
		}},
		{ReasonConnectionRefused, true, [5]time.Duration{
			3600 * time.Second, 7200 * time.Second, 14400 * time.Second, 21600 * time.Second, 86400 * time.Second,
		}},
		{ReasonTimeout, false, [5]time.Duration{
			10 * time.Second, 30 * time.Second, 60 * time.Second, 120 * time.Second, 120 * time.Second,
		}},
		{ReasonTimeout, true, [5]time.Duration{
			20 * time.Second, 60 * time.Second, 120 * time.Second, 240 * time.Second, 240 * time.Second,
		}},
		{ReasonHandshakeReject, false, [5]time.Duration{
			21600 * time.Second, 21600 * time.Second, 21600 * time.Second, 21600 * time.Second, 21600 * time.Second,
		}},
		{ReasonHandshakeReject, true, [5]time.Duration{
			21600 * time.Second, 21600 * time.Second, 21600 * time.Second, 21600 * time.Second, 21600 * time.Second,
		}},
		{ReasonUnknown, false, [5]time.Duration{
			60 * time.Second, 300 * time.Second, 900 * time.Second, 1800 * time.Second, 3600 * time.Second,
		}},
	}

	for _, tc := range tests {
		for streak := 1; streak <= 6; streak++ {
			got := CalculateCooldown(tc.reason, streak, tc.isSeed)
			idx := streak - 1
			if idx > 4 {
				idx = 4
			}
			want := tc.wantBySlot[idx]
			if got != want {
				t.Fatalf("CalculateCooldown(reason=%d, streak=%d, seed=%v) = %s, want %s",
					tc.reason, streak, tc.isSeed, got, want)
			}
		}
	}
}

func TestCalculateCooldownZeroBelowFirstFailure(t *testing.T) {
	if got := CalculateCooldown(ReasonTimeout, 0, false); got != 0 {
		t.Fatalf("expected zero cooldown for a zero fail streak, got %s", got)
	}
}

func TestCalculateCooldownMonotonicNonDecreasingPerReason(t *testing.T) {
	for _, reason := range []FailureReason{ReasonConnectionRefused, ReasonTimeout, ReasonHandshakeReject, ReasonUnknown} {
		for _, seed := range []bool{false, true} {
			prev := time.Duration(0)
			for streak := 1; streak <= 8; streak++ {
				got := CalculateCooldown(reason, streak, seed)
				if got < prev {
					t.Fatalf("reason=%d seed=%v: cooldown decreased from streak %d (%s) to %d (%s)",
						reason, seed, streak-1, prev, streak, got)
				}
				prev = got
			}
		}
	}
}

func TestShouldQuarantineOnFailStreak(t *testing.T) {
	tr := New(nil)
	addr := "peer.example:9108"
	for i := 0; i < 5; i++ {
		tr.Record(addr, ReasonTimeout)
	}
	if !tr.ShouldQuarantine(addr) {
		t.Fatalf("expected quarantine after 5 consecutive failures")
	}
}

func TestShouldQuarantineNotYetAtFourFailures(t *testing.T) {
	tr := New(nil)
	addr := "peer.example:9108"
	// One earlier success keeps the zero-successes rule out of play, so
	// only the fail-streak threshold of 5 is under test.
	tr.RecordSuccess(addr)
	for i := 0; i < 4; i++ {
		tr.Record(addr, ReasonTimeout)
	}
	if tr.ShouldQuarantine(addr) {
		t.Fatalf("did not expect quarantine after only 4 consecutive failures following a success")
	}
}

func TestShouldQuarantineOnZeroSuccessesAfterThreeAttempts(t *testing.T) {
	tr := New(nil)
	addr := "peer.example:9108"
	// Two failures, one success-less attempt pattern isn't directly
	// modeled by Record/RecordSuccess alone; drive TotalAttempts up via
	// repeated Record calls without any RecordSuccess, so FailStreak
	// also reaches 3 but stays under the streak-based threshold of 5.
	tr.Record(addr, ReasonConnectionRefused)
	tr.Record(addr, ReasonConnectionRefused)
	tr.Record(addr, ReasonConnectionRefused)
	if !tr.ShouldQuarantine(addr) {
		t.Fatalf("expected quarantine after 3 attempts with zero successes")
	}
}

func TestRecordSuccessResetsFailStreakAndAvoidsQuarantine(t *testing.T) {
	tr := New(nil)
	addr := "peer.example:9108"
	tr.Record(addr, ReasonTimeout)
	tr.Record(addr, ReasonTimeout)
	tr.RecordSuccess(addr)

	b, ok := tr.GetBackoff(addr)
	if !ok {
		t.Fatalf("expected backoff entry to exist")
	}
	if b.FailStreak != 0 {
		t.Fatalf("expected fail streak reset to 0 after success, got %d", b.FailStreak)
	}
	if tr.ShouldQuarantine(addr) {
		t.Fatalf("did not expect quarantine right after a recorded success")
	}
}

func TestSeedPeerGetsLongerCooldownThanNonSeed(t *testing.T) {
	seedTracker := New([]string{"seed.example:9108"})
	plainTracker := New(nil)

	seedTracker.Record("seed.example:9108", ReasonConnectionRefused)
	seedTracker.Record("seed.example:9108", ReasonConnectionRefused)
	plainTracker.Record("peer.example:9108", ReasonConnectionRefused)
	plainTracker.Record("peer.example:9108", ReasonConnectionRefused)

	seedBackoff, _ := seedTracker.GetBackoff("seed.example:9108")
	plainBackoff, _ := plainTracker.GetBackoff("peer.example:9108")

	seedCooldown := CalculateCooldown(ReasonConnectionRefused, seedBackoff.FailStreak, true)
	plainCooldown := CalculateCooldown(ReasonConnectionRefused, plainBackoff.FailStreak, false)

	if seedCooldown <= plainCooldown {
		t.Fatalf("expected seed cooldown (%s) to be longer than non-seed (%s)", seedCooldown, plainCooldown)
	}
}
