// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mining assembles block templates and gates mining rewards on
// the five independent eligibility checks: warmup height, peer count,
// P2P health, desync from the best known peer tip, and the
// quorum-or-isolation-escape rule.
package mining

import (
	"time"

	"github.com/visionchain/visiond/chaincfg"
)

// P2PHealth summarizes the connectivity state the eligibility gate
// consults for rule 3.
type P2PHealth int

const (
	// HealthHealthy means the node has active, recently-responsive
	// peer connections.
	HealthHealthy P2PHealth = iota
	// HealthDegraded means peers exist but have been unresponsive or
	// partially desynced.
	HealthDegraded
	// HealthIsolated means the node has no usable peer connections.
	HealthIsolated
)

// EligibilityInput carries the live node state the eligibility gate
// evaluates. It is a plain data snapshot rather than a live handle so
// the gate can be unit tested without standing up a node.
type EligibilityInput struct {
	Height            uint64
	PeerCount         int
	Health            P2PHealth
	BestPeerHeight    uint64
	IsolatedSince     time.Time // zero value means not currently isolated
	Now               time.Time
	SawQuorumRecently bool
}

// Decision is the outcome of the eligibility gate: whether a reward may
// be claimed, and whether it should be paid at full subsidy or fees-only.
type Decision struct {
	Eligible         bool
	FeesOnly         bool
	FailedRule       string
}

// EvaluateEligibility runs the five-rule mining reward eligibility gate
// described by the network parameters against the given input.
func EvaluateEligibility(p *chaincfg.Params, in EligibilityInput, subsidyDuringIsolation bool) Decision {
	// Rule 1: warmup height.
	if in.Height < p.MiningWarmupHeight {
		return Decision{FailedRule: "warmup_height"}
	}

	// Rule 2: minimum peer count.
	if in.PeerCount < p.MinPeersForReward {
		return Decision{FailedRule: "min_peers"}
	}

	// Rule 3: degraded P2P health fails. Isolation does not fail here;
	// it is handled by rule 5's escape path instead.
	if in.Health == HealthDegraded {
		return Decision{FailedRule: "p2p_health_degraded"}
	}

	// Rule 4: desync from the best known peer tip.
	if in.BestPeerHeight > in.Height {
		gap := in.BestPeerHeight - in.Height
		if gap > p.MaxDesyncBlocks {
			return Decision{FailedRule: "desync_too_far"}
		}
	}

	// Rule 5: either a recent height quorum was observed, or the node
	// has been isolated longer than the configured escape timeout.
	if in.SawQuorumRecently {
		return Decision{Eligible: true}
	}
	if in.Health == HealthIsolated && !in.IsolatedSince.IsZero() {
		isolatedFor := in.Now.Sub(in.IsolatedSince)
		if isolatedFor >= p.IsolationEscapeTimeout {
			return Decision{Eligible: true, FeesOnly: !subsidyDuringIsolation}
		}
	}
	return Decision{FailedRule: "no_quorum_and_isolation_not_escaped"}
}
