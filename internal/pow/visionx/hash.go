// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package visionx

import (
	"encoding/binary"
	"math/bits"

	"github.com/visionchain/visiond/internal/chainhash"
)

// nonceSeedXor is folded into the nonce when seeding a hash attempt's
// private scratchpad, so the scratchpad seed domain never collides with
// the dataset seed domain even for degenerate header bytes.
const nonceSeedXor = 0xDEADBEEFF00DFACE

// scratchWords returns the power-of-two number of 64-bit words in a
// ScratchMB-sized private scratchpad, rounded up so indexing can use a
// mask instead of a modulo.
func scratchWords(p Params) int {
	words := uint64(p.ScratchMB) * 1024 * 1024 / 8
	n := 1
	for uint64(n) < words {
		n <<= 1
	}
	return n
}

// initScratch seeds a hash attempt's private scratchpad from the header
// bytes and nonce. Each slot combines two pseudo-random reads from the
// shared dataset with a multiplicative mix, so the scratchpad contents
// depend on the epoch dataset and cannot be precomputed per nonce alone.
func initScratch(p Params, ds *Dataset, header []byte, nonce uint64) []uint64 {
	headerHash := chainhash.HashH(header)
	seed := (nonce ^ nonceSeedXor) ^ binary.BigEndian.Uint64(headerHash[:8])
	rng := newSplitMix64(seed)

	dsMask := uint64(len(ds.Words) - 1)
	scratch := make([]uint64, scratchWords(p))
	for i := range scratch {
		r1 := ds.Words[rng.next()&dsMask]
		r2 := ds.Words[rng.next()&dsMask]
		scratch[i] = (r1 ^ bits.RotateLeft64(r2, 23)) * 0xFF51AFD7ED558CCD
	}
	return scratch
}

// mixState is the 128-bit running state plus accumulator carried
// through the dependent-read loop.
type mixState struct {
	a, b, acc uint64
}

// visionxMix runs the dependent-read inner loop: each iteration reads a
// scratchpad slot derived from the current state, then two (or three,
// when ReadsPerIter >= 4) further slots each derived from the value just
// read, so the loads cannot be issued independently. Every WriteEvery
// iterations the mixed value is written back into a data-derived slot,
// mutating the scratchpad as the loop runs.
func visionxMix(p Params, scratch []uint64) mixState {
	scMask := uint64(len(scratch) - 1)

	st := mixState{
		a:   scratch[0],
		b:   scratch[len(scratch)-1],
		acc: scratch[len(scratch)/2],
	}

	for i := uint64(0); i < uint64(p.MixIters); i++ {
		j1 := (st.a ^ i) & scMask
		v1 := scratch[j1]
		j2 := v1 & scMask
		v2 := scratch[j2]
		j3 := v2 & scMask
		v3 := scratch[j3]

		mix := v1 ^ bits.RotateLeft64(v2, 13) ^ bits.RotateLeft64(v3, 29)
		if p.ReadsPerIter >= 4 {
			v4 := scratch[(v3>>7)&scMask]
			mix ^= bits.RotateLeft64(v4, 43)
		}

		st.a = (st.a ^ mix) * 0xFF51AFD7ED558CCD
		st.b = bits.RotateLeft64(st.b+mix, 31) ^ st.a
		st.acc += mix

		if i%uint64(p.WriteEvery) == 0 {
			scratch[(mix^st.b)&scMask] = st.a ^ st.acc
		}
	}
	return st
}

// expand256 folds (a XOR acc, b XOR rotl(acc, 3)) through a 4-round
// Feistel-style mixer, capturing one 64-bit word per round, so the
// 128-bit loop state widens into a 256-bit digest without any round's
// output being directly invertible from the last.
func expand256(st mixState) chainhash.Hash {
	l := st.a ^ st.acc
	r := st.b ^ bits.RotateLeft64(st.acc, 3)

	var out chainhash.Hash
	for round := 0; round < 4; round++ {
		f := (r ^ uint64(round)*0x9E3779B97F4A7C15) * 0xBF58476D1CE4E5B9
		f ^= f >> 29
		l, r = r, l^f
		binary.BigEndian.PutUint64(out[round*8:round*8+8], l^bits.RotateLeft64(r, 17))
	}
	return out
}

// Digest computes the VisionX proof-of-work digest for the given header
// bytes and nonce, against the shared dataset for the supplied epoch.
func Digest(p Params, ds *Dataset, header []byte, nonce uint64) chainhash.Hash {
	scratch := initScratch(p, ds, header, nonce)
	return expand256(visionxMix(p, scratch))
}
