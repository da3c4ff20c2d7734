// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"os"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/internal/chain"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/store"
	"github.com/visionchain/visiond/internal/wire"
)

// newLinearChain builds a chain with height+1 blocks (0..height),
// strictly increasing timestamps comfortably inside the median and
// future-drift rules chain.AppendBlock enforces.
func newLinearChain(t *testing.T, height uint64) *chain.Chain {
	t.Helper()
	dir, err := os.MkdirTemp("", "visiond-sync-test")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	params := chaincfg.RegNetParams()
	genesis := wire.BlockHeader{Version: 1, Height: 0, Difficulty: params.GenesisDifficulty}
	c := chain.New(params, db, genesis)

	base := time.Now().Add(-1 * time.Hour).Unix()
	for h := uint64(1); h <= height; h++ {
		header := wire.BlockHeader{
			Height:     h,
			PrevHash:   c.BestHash(),
			Timestamp:  base + int64(h),
			Difficulty: params.GenesisDifficulty,
		}
		if err := c.AppendBlock(header, nil); err != nil {
			t.Fatalf("AppendBlock height %d: %v", h, err)
		}
	}
	return c
}

func TestHandleGetBlocksReturnsDecodableBodies(t *testing.T) {
	c := newLinearChain(t, 5)
	hdr3, _ := c.GetBlock(3)

	resp := HandleGetBlocks(c, &wire.GetBlocks{Hashes: []chainhash.Hash{hdr3.Hash()}})
	if len(resp.Blocks) != 1 {
		t.Fatalf("expected 1 block body, got %d", len(resp.Blocks))
	}

	blk, err := DecodeRawBlock(&resp.Blocks[0])
	if err != nil {
		t.Fatalf("DecodeRawBlock: %v", err)
	}
	if blk.Header.Height != 3 {
		t.Fatalf("decoded body has height %d, want 3", blk.Header.Height)
	}
}

func TestHandleGetBlocksSkipsUnknownHashes(t *testing.T) {
	c := newLinearChain(t, 2)
	var unknown chainhash.Hash
	unknown[0] = 0xFF
	resp := HandleGetBlocks(c, &wire.GetBlocks{Hashes: []chainhash.Hash{unknown}})
	if len(resp.Blocks) != 0 {
		t.Fatalf("expected no bodies for an unknown hash, got %d", len(resp.Blocks))
	}
}

func TestHandleGetHeadersLocatorTieBreak(t *testing.T) {
	c := newLinearChain(t, 100)

	hdr95, ok := c.GetBlock(95)
	if !ok {
		t.Fatalf("missing header at height 95")
	}
	hdr80, ok := c.GetBlock(80)
	if !ok {
		t.Fatalf("missing header at height 80")
	}
	hdr0, ok := c.GetBlock(0)
	if !ok {
		t.Fatalf("missing header at height 0")
	}

	req := &wire.GetHeaders{
		Locator:    []chainhash.Hash{hdr95.Hash(), hdr80.Hash(), hdr0.Hash()},
		MaxHeaders: 3,
	}
	resp := HandleGetHeaders(c, req)

	wantHeights := []uint64{96, 97, 98}
	if len(resp.Headers) != len(wantHeights) {
		t.Fatalf("HandleGetHeaders returned %d headers, want %d: %s",
			len(resp.Headers), len(wantHeights), spew.Sdump(resp.Headers))
	}
	for i, wantHeight := range wantHeights {
		if resp.Headers[i].Height != wantHeight {
			t.Fatalf("header %d: got height %d, want %d: %s",
				i, resp.Headers[i].Height, wantHeight, spew.Sdump(resp.Headers))
		}
	}
}

func TestHandleGetHeadersEmptyLocatorStartsFromGenesis(t *testing.T) {
	c := newLinearChain(t, 5)
	req := &wire.GetHeaders{MaxHeaders: 2}
	resp := HandleGetHeaders(c, req)
	if len(resp.Headers) != 2 || resp.Headers[0].Height != 0 || resp.Headers[1].Height != 1 {
		t.Fatalf("expected headers at heights 0,1 with no locator match, got %s", spew.Sdump(resp.Headers))
	}
}

func TestBuildLocatorIncludesTipAndGenesis(t *testing.T) {
	c := newLinearChain(t, 30)
	locator := BuildLocator(c)
	if len(locator) == 0 {
		t.Fatalf("expected non-empty locator")
	}
	tip, _ := c.GetBlock(c.BestHeight())
	if locator[0] != tip.Hash() {
		t.Fatalf("expected locator to start at the tip hash")
	}
	genesisHdr, _ := c.GetBlock(0)
	if locator[len(locator)-1] != genesisHdr.Hash() {
		t.Fatalf("expected locator to end at the genesis hash")
	}
}
