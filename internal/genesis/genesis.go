// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis computes and validates the two consensus-locked
// fingerprints every node and peer must agree on: the genesis block
// hash and the hardcoded economics (vault/split) configuration hash.
package genesis

import (
	"encoding/binary"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

// Canonical genesis literals. GENESIS_HASH is one network-wide
// constant computed over exactly these fixed values (version 1, height
// 0, all-zero previous hash and tx root, timestamp 0, difficulty 1,
// nonce 0) — never over per-network configuration, so every node on
// every network derives the identical consensus-locked fingerprint.
const (
	genesisVersion    = 1
	genesisDifficulty = 1
)

// Header builds the canonical genesis block header.
func Header() wire.BlockHeader {
	return wire.BlockHeader{
		Version:    genesisVersion,
		Height:     0,
		PrevHash:   chainhash.Hash{},
		Timestamp:  0,
		Difficulty: genesisDifficulty,
		TxRoot:     chainhash.Hash{},
		Nonce:      0,
	}
}

// ComputeHash returns the BLAKE3 fingerprint of the canonical genesis
// header's byte layout. This is GENESIS_HASH: computed once at startup
// from the fixed literals above rather than frozen as a hex constant,
// since this codebase never invokes a build step that could stamp a
// precomputed value.
func ComputeHash() chainhash.Hash {
	h := Header()
	return chainhash.Blake3Hash(h.Bytes())
}

// ValidateStored checks that storedHash matches the canonical genesis
// hash, returning a KindFatal error on mismatch since a genesis
// mismatch means the datadir belongs to a different chain.
func ValidateStored(storedHash chainhash.Hash) error {
	if ComputeHash() != storedHash {
		return verrors.Fatal("genesis_hash_mismatch",
			"stored genesis hash does not match the canonical genesis hash", nil)
	}
	return nil
}

// economicsBytes returns the canonical big-endian byte layout of an
// Economics configuration, hashed into ECON_HASH.
func economicsBytes(e chaincfg.Economics) []byte {
	buf := make([]byte, 0, 4*chainhash.HashSize+4*2)
	buf = append(buf, e.StakingVault[:]...)
	buf = append(buf, e.EcosystemFund[:]...)
	buf = append(buf, e.Founder1[:]...)
	buf = append(buf, e.Founder2[:]...)
	buf = appendUint16(buf, e.SplitStakingBps)
	buf = appendUint16(buf, e.SplitFundBps)
	buf = appendUint16(buf, e.SplitF1Bps)
	buf = appendUint16(buf, e.SplitF2Bps)
	return buf
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// ComputeEconHash returns the BLAKE3 fingerprint of the economics
// configuration, i.e. ECON_HASH.
func ComputeEconHash(e chaincfg.Economics) (chainhash.Hash, error) {
	if e.BpsSum() != 10000 {
		return chainhash.Hash{}, verrors.Validation("econ_splits_invalid",
			"economics basis-point splits must sum to exactly 10000")
	}
	return chainhash.Blake3Hash(economicsBytes(e)), nil
}

// ValidateEconHash computes the economics fingerprint of the given
// network parameters, returning a KindFatal error when the basis-point
// splits do not sum to 10000. It does not compare the result against a
// stored constant; comparison happens only against a peer's hash, in
// VerifyPeerEconHash.
func ValidateEconHash(p *chaincfg.Params) (chainhash.Hash, error) {
	hash, err := ComputeEconHash(p.Economics)
	if err != nil {
		return chainhash.Hash{}, verrors.Fatal("econ_hash_invalid", err.Error(), err)
	}
	return hash, nil
}

// VerifyPeerEconHash reports whether a peer-advertised econ hash matches
// the locally computed one, used during the HELLO handshake to reject
// peers running a different economic configuration.
func VerifyPeerEconHash(p *chaincfg.Params, peerHash chainhash.Hash) error {
	local, err := ValidateEconHash(p)
	if err != nil {
		return err
	}
	if local != peerHash {
		return verrors.Reject("econ_hash_mismatch", "peer econ hash does not match local network configuration")
	}
	return nil
}
