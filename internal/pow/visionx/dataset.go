// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package visionx

import (
	"encoding/binary"
	"sync"

	"github.com/visionchain/visiond/internal/chainhash"
)

// splitMix64 is a fast, well-distributed PRNG used to expand a 64-bit
// seed into the dataset's 64-bit words.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// foldSeed derives the 64-bit dataset seed for an epoch from the previous
// block hash and the epoch number.
func foldSeed(epoch uint64, prevHash chainhash.Hash) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	mixed := chainhash.HashH(append(buf[:], prevHash[:]...))
	return binary.BigEndian.Uint64(mixed[:8])
}

// Dataset is the shared, per-epoch memory-hard table. It is built once
// per epoch and read (never mutated) by every hashing attempt that
// shares the epoch; the private per-hash scratchpad is where mutation
// happens.
type Dataset struct {
	Epoch uint64
	Words []uint64 // power-of-2 length
}

// datasetWords returns the next power of two number of 64-bit words that
// fits the requested size in megabytes, so indexing can use mask n-1.
func datasetWords(mb uint32) int {
	bytes := uint64(mb) * 1024 * 1024
	words := bytes / 8
	n := 1
	for uint64(n) < words {
		n <<= 1
	}
	return n
}

// buildDataset constructs the shared dataset for an epoch, deterministically
// from the epoch number and the previous block hash.
func buildDataset(p Params, epoch uint64, prevHash chainhash.Hash) *Dataset {
	seed := foldSeed(epoch, prevHash)
	rng := newSplitMix64(seed)
	words := make([]uint64, datasetWords(p.DatasetMB))
	for i := range words {
		words[i] = rng.next()
	}
	return &Dataset{Epoch: epoch, Words: words}
}

// datasetKey identifies one cached dataset build. The previous-epoch
// block hash is part of the key because a reorg across an epoch
// boundary changes the dataset even for the same epoch number.
type datasetKey struct {
	epoch    uint64
	prevHash chainhash.Hash
}

// datasetCache caches up to 3 epochs of shared datasets, evicting the
// least recently inserted once a fourth is requested. Datasets are
// expensive to build (tens to hundreds of MB of SplitMix64 output) so
// every miner and verifier on the same epoch should reuse one build.
type datasetCache struct {
	mu    sync.Mutex
	order []datasetKey
	sets  map[datasetKey]*Dataset
}

const maxCachedEpochs = 3

func newDatasetCache() *datasetCache {
	return &datasetCache{sets: make(map[datasetKey]*Dataset)}
}

func (c *datasetCache) get(p Params, epoch uint64, prevHash chainhash.Hash) *Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := datasetKey{epoch: epoch, prevHash: prevHash}
	if ds, ok := c.sets[key]; ok {
		return ds
	}

	ds := buildDataset(p, epoch, prevHash)
	c.sets[key] = ds
	c.order = append(c.order, key)
	if len(c.order) > maxCachedEpochs {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.sets, oldest)
	}
	return ds
}

// defaultCache is the package-level dataset cache shared by Digest and
// Verify calls across the process.
var defaultCache = newDatasetCache()

// GetDataset returns the shared dataset for the given epoch, building and
// caching it if necessary. The returned dataset is shared and must be
// treated as read-only.
func GetDataset(p Params, epoch uint64, prevHash chainhash.Hash) *Dataset {
	return defaultCache.get(p, epoch, prevHash)
}
