// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/pow/visionx"
)

// MainNetParams returns the network parameters for the main Vision network.
func MainNetParams() *Params {
	return &Params{
		Name:        "mainnet",
		NetMagic:    0x76697331, // "vis1"
		DefaultPort: "9108",

		GenesisTimestamp: time.Unix(1760649600, 0), // Thu, 16 Oct 2025 21:20:00 GMT
		GenesisDifficulty: 0x1d00ffff,

		VisionX: visionx.Params{
			DatasetMB:     256,
			ScratchMB:     32,
			MixIters:      200_000,
			ReadsPerIter:  4,
			WriteEvery:    8,
			EpochBlocks:   2048,
		},

		Economics: Economics{
			StakingVault:    mustHash("0000000000000000000000000000000000000000000000000000007661756c74"),
			EcosystemFund:   mustHash("00000000000000000000000000000000000000000000000000656636756e64"),
			Founder1:        mustHash("000000000000000000000000000000000000000000000000000066647231"),
			Founder2:        mustHash("000000000000000000000000000000000000000000000000000066647232"),
			SplitStakingBps: 5000,
			SplitFundBps:    3000,
			SplitF1Bps:      1000,
			SplitF2Bps:      1000,
		},

		BaseSubsidy: 50 * cointype.AtomsPerLAND,

		MiningWarmupHeight:     2016,
		MinPeersForReward:      3,
		MaxDesyncBlocks:        6,
		IsolationEscapeTimeout: 30 * time.Minute,

		Seeds: []string{
			"seed1.visionchain.org:9108",
			"seed2.visionchain.org:9108",
		},
	}
}

// TestNetParams returns the network parameters for the Vision test network.
// It mirrors MainNetParams but with cheaper VisionX parameters so test
// nodes can mine and verify quickly, and a distinct net magic so testnet
// and mainnet peers never accidentally handshake with each other.
func TestNetParams() *Params {
	p := MainNetParams()
	p.Name = "testnet"
	p.NetMagic = 0x76697374 // "vist"
	p.DefaultPort = "19108"
	p.GenesisTimestamp = time.Unix(1757971200, 0) // Mon, 15 Sep 2025 21:20:00 GMT
	p.VisionX = visionx.Params{
		DatasetMB:    16,
		ScratchMB:    4,
		MixIters:     10_000,
		ReadsPerIter: 4,
		WriteEvery:   8,
		EpochBlocks:  256,
	}
	p.MiningWarmupHeight = 16
	p.MinPeersForReward = 1
	p.Seeds = []string{"testseed1.visionchain.org:19108"}
	return p
}

// RegNetParams returns network parameters for local regression testing:
// trivial VisionX parameters, no warmup, no peer quorum requirement, and
// no seed nodes.
func RegNetParams() *Params {
	p := MainNetParams()
	p.Name = "regnet"
	p.NetMagic = 0x72656774 // "regt"
	p.DefaultPort = "19558"
	p.GenesisTimestamp = time.Unix(0, 0)
	p.GenesisDifficulty = 1
	p.VisionX = visionx.Params{
		DatasetMB:    1,
		ScratchMB:    1,
		MixIters:     1_000,
		ReadsPerIter: 4,
		WriteEvery:   4,
		EpochBlocks:  32,
	}
	p.MiningWarmupHeight = 0
	p.MinPeersForReward = 0
	p.Seeds = nil
	return p
}

func mustHash(hexStr string) chainhash.Hash {
	padded := hexStr
	for len(padded) < chainhash.HashSize*2 {
		padded = "0" + padded
	}
	b := make([]byte, chainhash.HashSize)
	for i := 0; i < chainhash.HashSize; i++ {
		hi := hexVal(padded[i*2])
		lo := hexVal(padded[i*2+1])
		b[i] = hi<<4 | lo
	}
	h, _ := chainhash.NewHash(b)
	return *h
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
