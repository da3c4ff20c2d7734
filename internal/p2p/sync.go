// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"encoding/json"

	"github.com/visionchain/visiond/internal/chain"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/netsync"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/wire"
)

// maxHeadersPerResponse bounds how many headers a single Headers
// message may carry, so a sync response can't be used to exhaust a
// peer's memory.
const maxHeadersPerResponse = 2000

// maxBlocksPerResponse bounds how many bodies a single Blocks message
// may carry; syncers fetch bodies in windows of at most this size.
const maxBlocksPerResponse = 128

// BuildLocator returns a block locator for c's current best chain: a
// set of hashes at exponentially increasing distance from the tip, so a
// peer can find the most recent common ancestor in O(log n) round
// trips instead of walking the whole history.
func BuildLocator(c *chain.Chain) []chainhash.Hash {
	var locator []chainhash.Hash
	height := c.BestHeight()
	step := uint64(1)
	for {
		hdr, ok := c.GetBlock(height)
		if !ok {
			break
		}
		locator = append(locator, hdr.Hash())
		if height == 0 {
			break
		}
		if len(locator) >= 10 {
			step *= 2
		}
		if height < step {
			height = 0
		} else {
			height -= step
		}
	}
	return locator
}

// HandleGetHeaders answers a GetHeaders request by walking forward from
// the first locator hash the local chain recognizes, returning up to
// MaxHeaders (capped by maxHeadersPerResponse) contiguous headers.
func HandleGetHeaders(c *chain.Chain, req *wire.GetHeaders) *wire.Headers {
	limit := req.MaxHeaders
	if limit <= 0 || limit > maxHeadersPerResponse {
		limit = maxHeadersPerResponse
	}

	startHeight := uint64(0)
	found := false
	for _, want := range req.Locator {
		for h := uint64(0); h <= c.BestHeight(); h++ {
			hdr, ok := c.GetBlock(h)
			if ok && hdr.Hash() == want {
				startHeight = h + 1
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	var out []wire.BlockHeader
	for h := startHeight; h <= c.BestHeight() && len(out) < limit; h++ {
		hdr, ok := c.GetBlock(h)
		if !ok {
			break
		}
		out = append(out, hdr)
		if hdr.Hash() == req.StopHash {
			break
		}
	}
	return &wire.Headers{Headers: out}
}

// HandleGetBlocks answers a GetBlocks request with the JSON-encoded
// bodies of every requested block the local chain has, silently
// skipping unknown hashes so a peer probing with a stale locator gets
// a partial response rather than an error.
func HandleGetBlocks(c *chain.Chain, req *wire.GetBlocks) *wire.Blocks {
	hashes := req.Hashes
	if len(hashes) > maxBlocksPerResponse {
		hashes = hashes[:maxBlocksPerResponse]
	}

	resp := &wire.Blocks{}
	for _, h := range hashes {
		blk, ok := c.BlockByHash(h)
		if !ok {
			continue
		}
		raw, err := json.Marshal(blk)
		if err != nil {
			log.Errorf("encoding block %s for peer response: %v", h, err)
			continue
		}
		resp.Blocks = append(resp.Blocks, wire.RawBlock{Hash: h, Raw: raw})
	}
	return resp
}

// DecodeRawBlock parses one body from a Blocks response.
func DecodeRawBlock(rb *wire.RawBlock) (*wire.Block, error) {
	var blk wire.Block
	if err := json.Unmarshal(rb.Raw, &blk); err != nil {
		return nil, verrors.Validation("bad_block_encoding", err.Error())
	}
	if blk.Header.Hash() != rb.Hash {
		return nil, verrors.Validation("block_hash_mismatch",
			"decoded block header does not hash to the advertised block hash")
	}
	return &blk, nil
}

var _ netsync.PeerNotifier = (*BasicNotifier)(nil)

// BasicNotifier is a minimal netsync.PeerNotifier that fans announcements
// out to every connected peer's outbound queue.
type BasicNotifier struct {
	Peers []chan wire.Envelope
}

// AnnounceNewTransactions implements netsync.PeerNotifier.
func (n *BasicNotifier) AnnounceNewTransactions(txs []*wire.Tx) {
	hashes := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	n.broadcast(wire.Inv{TxHashes: hashes})
}

// AnnounceNewBlock implements netsync.PeerNotifier.
func (n *BasicNotifier) AnnounceNewBlock(header *wire.BlockHeader) {
	n.broadcast(wire.Inv{BlockHashes: []chainhash.Hash{header.Hash()}})
}

func (n *BasicNotifier) broadcast(inv wire.Inv) {
	payload, err := json.Marshal(inv)
	if err != nil {
		return
	}
	envelope := wire.Envelope{Type: wire.MsgInv, Payload: payload}
	for _, ch := range n.Peers {
		select {
		case ch <- envelope:
		default:
			// Drop rather than block a slow peer; a dropped inventory
			// is not re-sent.
		}
	}
}
