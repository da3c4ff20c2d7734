// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package connmgr tracks per-peer dial failures and computes the
// cooldown before the next redial attempt from a fixed per-reason,
// per-streak schedule, so a node never hammers an unreachable or
// misbehaving peer.
package connmgr

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/decred/slog"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// FailureReason classifies why a dial attempt failed, since the
// cooldown schedule differs by class: a handshake reject signals an
// actively incompatible peer and backs off harder than a plain
// connection timeout.
type FailureReason int

const (
	ReasonUnknown FailureReason = iota
	ReasonConnectionRefused
	ReasonTimeout
	ReasonHandshakeReject
)

// ClassifyError maps a dial error onto the failure-reason class whose
// cooldown schedule should apply.
func ClassifyError(err error) FailureReason {
	if err == nil {
		return ReasonUnknown
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ReasonConnectionRefused
	}
	return ReasonUnknown
}

// quarantineThreshold is the fail streak at which a peer is
// considered for quarantine (excluded from normal dial rotation
// entirely, rather than just cooled down), regardless of its total
// attempt/success counts.
const quarantineThreshold = 5

// Cooldown tables, in seconds, indexed by fail streak: index 0 is
// streak 1, index 4 is streak 5 and beyond. Seed peers back off harder
// on connection-refused and timeout than ordinary peers, since a seed
// that's genuinely gone is more disruptive to keep hammering; the
// handshake-reject and unknown tables don't distinguish seed status.
var (
	cooldownConnectionRefused     = [5]int64{3600, 3600, 7200, 14400, 43200}
	cooldownConnectionRefusedSeed = [5]int64{3600, 7200, 14400, 21600, 86400}
	cooldownTimeout               = [5]int64{10, 30, 60, 120, 120}
	cooldownTimeoutSeed           = [5]int64{20, 60, 120, 240, 240}
	cooldownHandshakeReject       = [5]int64{21600, 21600, 21600, 21600, 21600}
	cooldownUnknown               = [5]int64{60, 300, 900, 1800, 3600}
)

// CalculateCooldown returns the cooldown duration for the given failure
// reason, fail streak, and whether the peer is a configured seed node,
// per the fixed reason-class/streak schedule.
func CalculateCooldown(reason FailureReason, failStreak int, isSeed bool) time.Duration {
	if failStreak <= 0 {
		return 0
	}

	idx := failStreak - 1
	if idx > 4 {
		idx = 4
	}

	var seconds int64
	switch reason {
	case ReasonConnectionRefused:
		if isSeed {
			seconds = cooldownConnectionRefusedSeed[idx]
		} else {
			seconds = cooldownConnectionRefused[idx]
		}
	case ReasonTimeout:
		if isSeed {
			seconds = cooldownTimeoutSeed[idx]
		} else {
			seconds = cooldownTimeout[idx]
		}
	case ReasonHandshakeReject:
		seconds = cooldownHandshakeReject[idx]
	default:
		seconds = cooldownUnknown[idx]
	}
	return time.Duration(seconds) * time.Second
}

// DialBackoff tracks one peer's dial history.
type DialBackoff struct {
	FailStreak      int
	CooldownUntil   time.Time
	LastFailReason  FailureReason
	LastAttemptAt   time.Time
	LastSuccessAt   time.Time
	TotalAttempts   int
	TotalSuccesses  int
}

// failureRingCapacity bounds the recent-failure ring; the oldest record
// is dropped when a newcomer would exceed it.
const failureRingCapacity = 100

// FailureRecord is one entry in the recent-failure ring, kept so an
// operator can see what has been going wrong lately without trawling
// logs.
type FailureRecord struct {
	Addr   string
	Reason FailureReason
	At     time.Time
}

// DialTracker tracks DialBackoff state for every known peer address.
type DialTracker struct {
	mu      sync.Mutex
	backoff map[string]*DialBackoff
	seeds   map[string]bool
	recent  []FailureRecord
}

// New constructs a DialTracker, marking the given addresses as seed
// nodes for cooldown-schedule purposes.
func New(seedAddrs []string) *DialTracker {
	seeds := make(map[string]bool, len(seedAddrs))
	for _, a := range seedAddrs {
		seeds[a] = true
	}
	return &DialTracker{backoff: make(map[string]*DialBackoff), seeds: seeds}
}

func (t *DialTracker) entryLocked(addr string) *DialBackoff {
	b, ok := t.backoff[addr]
	if !ok {
		b = &DialBackoff{}
		t.backoff[addr] = b
	}
	return b
}

// Record logs a failed dial attempt and recomputes the cooldown.
func (t *DialTracker) Record(addr string, reason FailureReason) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.entryLocked(addr)
	b.FailStreak++
	b.LastFailReason = reason
	b.LastAttemptAt = time.Now()
	b.TotalAttempts++

	cooldown := CalculateCooldown(reason, b.FailStreak, t.seeds[addr])
	b.CooldownUntil = time.Now().Add(cooldown)

	if len(t.recent) >= failureRingCapacity {
		t.recent = t.recent[1:]
	}
	t.recent = append(t.recent, FailureRecord{Addr: addr, Reason: reason, At: b.LastAttemptAt})

	if b.FailStreak >= quarantineThreshold {
		log.Warnf("peer %s has failed %d consecutive dials and is eligible for quarantine", addr, b.FailStreak)
	}
}

// RecordSuccess clears the fail streak for addr and records the
// successful connection.
func (t *DialTracker) RecordSuccess(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.entryLocked(addr)
	b.FailStreak = 0
	b.CooldownUntil = time.Time{}
	b.LastSuccessAt = time.Now()
	b.TotalAttempts++
	b.TotalSuccesses++
}

// IsInCooldown reports whether addr is currently cooling down.
func (t *DialTracker) IsInCooldown(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.backoff[addr]
	if !ok {
		return false
	}
	return time.Now().Before(b.CooldownUntil)
}

// GetBackoff returns a copy of the backoff state for addr.
func (t *DialTracker) GetBackoff(addr string) (DialBackoff, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.backoff[addr]
	if !ok {
		return DialBackoff{}, false
	}
	return *b, true
}

// ShouldQuarantine reports whether addr should be excluded from normal
// dial rotation entirely: either it has failed enough consecutive
// times, or it has never once succeeded across at least 3 attempts.
func (t *DialTracker) ShouldQuarantine(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.backoff[addr]
	if !ok {
		return false
	}
	if b.FailStreak >= quarantineThreshold {
		return true
	}
	return b.TotalSuccesses == 0 && b.TotalAttempts >= 3
}

// RecentFailures returns a copy of the recent-failure ring, oldest
// first.
func (t *DialTracker) RecentFailures() []FailureRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]FailureRecord(nil), t.recent...)
}

// DecayAll reduces every tracked address's fail streak by one, meant to
// be driven by an hourly background tick so a peer that has since
// reconnected elsewhere isn't permanently remembered as unreliable.
func (t *DialTracker) DecayAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range t.backoff {
		if b.FailStreak > 0 {
			b.FailStreak--
		}
	}
}
