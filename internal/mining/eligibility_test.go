// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"testing"
	"time"

	"github.com/visionchain/visiond/chaincfg"
)

func testGateParams() *chaincfg.Params {
	p := chaincfg.RegNetParams()
	p.MiningWarmupHeight = 10
	p.MinPeersForReward = 2
	p.MaxDesyncBlocks = 3
	p.IsolationEscapeTimeout = time.Minute
	return p
}

func TestEligibilityFailsBeforeWarmup(t *testing.T) {
	p := testGateParams()
	d := EvaluateEligibility(p, EligibilityInput{Height: 5, PeerCount: 5, SawQuorumRecently: true}, false)
	if d.Eligible || d.FailedRule != "warmup_height" {
		t.Fatalf("expected warmup_height failure, got %+v", d)
	}
}

func TestEligibilityFailsBelowMinPeers(t *testing.T) {
	p := testGateParams()
	d := EvaluateEligibility(p, EligibilityInput{Height: 20, PeerCount: 1, SawQuorumRecently: true}, false)
	if d.Eligible || d.FailedRule != "min_peers" {
		t.Fatalf("expected min_peers failure, got %+v", d)
	}
}

func TestEligibilitySucceedsWithQuorum(t *testing.T) {
	p := testGateParams()
	d := EvaluateEligibility(p, EligibilityInput{
		Height: 20, PeerCount: 5, BestPeerHeight: 21, SawQuorumRecently: true,
	}, false)
	if !d.Eligible {
		t.Fatalf("expected eligible decision, got %+v", d)
	}
}

func TestEligibilityFailsBeyondMaxDesync(t *testing.T) {
	p := testGateParams()
	d := EvaluateEligibility(p, EligibilityInput{
		Height: 20, PeerCount: 5, BestPeerHeight: 30, SawQuorumRecently: true,
	}, false)
	if d.Eligible || d.FailedRule != "desync_too_far" {
		t.Fatalf("expected desync_too_far failure, got %+v", d)
	}
}

func TestEligibilityIsolationEscapePaysFeesOnlyByDefault(t *testing.T) {
	p := testGateParams()
	now := time.Now()
	d := EvaluateEligibility(p, EligibilityInput{
		Height: 20, PeerCount: 2, Health: HealthIsolated,
		IsolatedSince: now.Add(-2 * time.Minute), Now: now,
	}, false)
	if !d.Eligible || !d.FeesOnly {
		t.Fatalf("expected fees-only isolation-escape eligibility, got %+v", d)
	}
}

func TestEligibilityIsolationNotYetEscaped(t *testing.T) {
	p := testGateParams()
	now := time.Now()
	d := EvaluateEligibility(p, EligibilityInput{
		Height: 20, PeerCount: 2, Health: HealthIsolated,
		IsolatedSince: now.Add(-10 * time.Second), Now: now,
	}, false)
	if d.Eligible {
		t.Fatalf("expected ineligible decision before isolation escape timeout, got %+v", d)
	}
}
