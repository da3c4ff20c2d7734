// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the chain-wide parameters that distinguish
// mainnet, testnet, and regnet: genesis fields, VisionX tuning, the
// hardcoded economics split, and the mining eligibility thresholds.
package chaincfg

import (
	"time"

	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/pow/visionx"
)

// Economics describes the genesis vault/split configuration. Its
// canonical byte layout is hashed by internal/genesis into ECON_HASH and
// cross-checked at handshake time so peers on a different economic
// configuration are rejected before they can sync.
type Economics struct {
	StakingVault  chainhash.Hash
	EcosystemFund chainhash.Hash
	Founder1      chainhash.Hash
	Founder2      chainhash.Hash

	SplitStakingBps uint16
	SplitFundBps    uint16
	SplitF1Bps      uint16
	SplitF2Bps      uint16
}

// BpsSum returns the sum of all split basis-point fields, which must
// equal exactly 10000 for the configuration to be valid.
func (e Economics) BpsSum() uint16 {
	return e.SplitStakingBps + e.SplitFundBps + e.SplitF1Bps + e.SplitF2Bps
}

// Params holds every network-specific constant a node needs.
type Params struct {
	Name        string
	NetMagic    uint32
	DefaultPort string

	// GenesisTimestamp and GenesisDifficulty describe the network's
	// launch for display and early-retarget purposes only. The
	// consensus-locked GENESIS_HASH is computed by internal/genesis
	// over fixed canonical literals and never reads these fields.
	GenesisTimestamp  time.Time
	GenesisDifficulty uint32

	VisionX   visionx.Params
	Economics Economics

	// BaseSubsidy is the LAND minted by an eligible block's coinbase.
	BaseSubsidy cointype.Amount

	// MiningWarmupHeight is the minimum chain height before mining
	// rewards are eligible (rule 1 of the eligibility gate).
	MiningWarmupHeight uint64

	// MinPeersForReward is the minimum connected-peer count required
	// for mining rewards (rule 2).
	MinPeersForReward int

	// MaxDesyncBlocks is the maximum permitted height gap from the
	// best known peer tip before rewards are withheld (rule 4).
	MaxDesyncBlocks uint64

	// IsolationEscapeTimeout is how long a node may remain isolated
	// before it is allowed to mine in isolation (rule 5).
	IsolationEscapeTimeout time.Duration

	Seeds []string
}
