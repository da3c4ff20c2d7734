// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package visionx

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/verrors"
)

// NonceSize is the width, in bytes, of the big-endian nonce embedded in
// a sealed header.
const NonceSize = 8

// Job describes a unit of mining work: a header to hash and a target the
// resulting digest must not exceed. Header must have zeroed nonce bytes;
// the nonce under trial is supplied separately so a miner never
// reserializes the header per attempt.
type Job struct {
	Height   uint64
	PrevHash chainhash.Hash
	Header   []byte
	Target   *big.Int
}

// Solution is a nonce that produces a digest meeting the job's target.
type Solution struct {
	Nonce  uint64
	Digest chainhash.Hash
}

// Verify checks that nonce produces a digest meeting target for the given
// job, rebuilding (or reusing the cached) shared dataset for the epoch.
// It rejects parameter sets that violate the anti-DoS ceilings before
// doing any hashing work.
func Verify(p Params, job Job, nonce uint64) (chainhash.Hash, error) {
	if err := p.Validate(); err != nil {
		return chainhash.Hash{}, verrors.Validation("visionx_bad_params", err.Error())
	}

	epoch := p.Epoch(job.Height)
	ds := GetDataset(p, epoch, job.PrevHash)

	digest := Digest(p, ds, job.Header, nonce)
	digestInt := new(big.Int).SetBytes(digest[:])
	if digestInt.Cmp(job.Target) > 0 {
		return digest, verrors.Reject("visionx_target_not_met", "digest exceeds target")
	}
	return digest, nil
}

// VerifySealed verifies a fully sealed header: the nonce is extracted
// big-endian from headerWithNonce[nonceOffset : nonceOffset+NonceSize],
// those bytes are zeroed to recover the preimage the miner hashed, and
// the digest is checked against target. This is the form block
// validation uses, since a received header arrives with its nonce
// already embedded.
func VerifySealed(p Params, height uint64, prevHash chainhash.Hash, headerWithNonce []byte, nonceOffset int, target *big.Int) (chainhash.Hash, error) {
	if nonceOffset < 0 || nonceOffset+NonceSize > len(headerWithNonce) {
		return chainhash.Hash{}, verrors.Validation("visionx_bad_nonce_offset",
			"nonce offset does not fit within the sealed header")
	}

	nonce := binary.BigEndian.Uint64(headerWithNonce[nonceOffset : nonceOffset+NonceSize])
	preimage := append([]byte(nil), headerWithNonce...)
	for i := 0; i < NonceSize; i++ {
		preimage[nonceOffset+i] = 0
	}

	job := Job{Height: height, PrevHash: prevHash, Header: preimage, Target: target}
	return Verify(p, job, nonce)
}

// Miner runs VisionX mining attempts for a job sequentially on the
// calling goroutine; it starts no goroutines or worker pool of its own.
type Miner struct {
	Params Params
}

// MineBatch tries nonces in [startNonce, startNonce+count) against job,
// returning the first solution found or nil if the context is canceled
// or the batch is exhausted without success.
func (m *Miner) MineBatch(ctx context.Context, job Job, startNonce uint64, count uint64) (*Solution, error) {
	if err := m.Params.Validate(); err != nil {
		return nil, verrors.Validation("visionx_bad_params", err.Error())
	}

	epoch := m.Params.Epoch(job.Height)
	ds := GetDataset(m.Params, epoch, job.PrevHash)

	for i := uint64(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		nonce := startNonce + i
		digest := Digest(m.Params, ds, job.Header, nonce)
		digestInt := new(big.Int).SetBytes(digest[:])
		if digestInt.Cmp(job.Target) <= 0 {
			return &Solution{Nonce: nonce, Digest: digest}, nil
		}
	}
	return nil, nil
}
