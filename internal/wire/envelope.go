// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"

	"github.com/visionchain/visiond/internal/chainhash"
)

// ProtocolVersion is the P2P protocol version this node speaks,
// advertised in the HELLO acknowledgement.
const ProtocolVersion uint32 = 1

// MessageType names the payload carried by an Envelope.
type MessageType string

// Message type tokens exchanged between peers. These are stable wire
// identifiers, not Go type names, and must never be renamed once a
// network is live.
const (
	MsgHello         MessageType = "hello"
	MsgHelloAck      MessageType = "hello_ack"
	MsgAnnounceBlock MessageType = "announce_block"
	MsgGetHeaders    MessageType = "get_headers"
	MsgHeaders       MessageType = "headers"
	MsgGetBlocks     MessageType = "get_blocks"
	MsgBlocks        MessageType = "blocks"
	MsgInv           MessageType = "inv"
	MsgTx            MessageType = "tx"
	MsgCompactBlock  MessageType = "compact_block"
	MsgGetBlockTxns  MessageType = "get_block_txns"
	MsgBlockTxns     MessageType = "block_txns"
)

// Envelope is the outermost JSON object exchanged over the peer
// connection; Type dispatches decoding of the raw Payload.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload []byte      `json:"payload"`
}

// HelloNonceSize is the width, in bytes, of the random replay nonce a
// HELLO carries (rendered as 32 lowercase hex characters on the wire).
const HelloNonceSize = 16

// Hello is the signed handshake message a peer sends on connect. The
// genesis/econ hashes and best height ride alongside for the
// responder's convenience but are NOT part of the signed payload; the
// signature covers only the canonical node_id/ts_unix/nonce_hex string
// so any implementation can reproduce it byte for byte.
type Hello struct {
	NodeID      string         `json:"from_node_id"`
	PubKey      []byte         `json:"pubkey_b64"`
	GenesisHash chainhash.Hash `json:"genesis_hash"`
	EconHash    chainhash.Hash `json:"econ_hash"`
	BestHeight  uint64         `json:"best_height"`
	NonceHex    string         `json:"nonce_hex"`
	Timestamp   int64          `json:"ts_unix"`
	Sig         []byte         `json:"sig"`
}

// SigningBytes returns the canonical payload the Hello signature
// covers: "{node_id}|{ts_unix}|{nonce_hex}".
func (h *Hello) SigningBytes() []byte {
	return []byte(fmt.Sprintf("%s|%d|%s", h.NodeID, h.Timestamp, h.NonceHex))
}

// HelloAck is the responder's half of a successful handshake,
// identifying the responder and the chain it serves so the initiator
// can immediately decide whether to sync from it.
type HelloAck struct {
	NodeID          string         `json:"node_id"`
	PubKey          []byte         `json:"pubkey"`
	ChainID         string         `json:"chain_id"`
	GenesisHash     chainhash.Hash `json:"genesis_hash"`
	ProtocolVersion uint32         `json:"protocol_version"`
	NodeVersion     string         `json:"node_version"`
	Height          uint64         `json:"height"`
	IsAnchor        bool           `json:"is_anchor"`
}

// AnnounceBlock tells a peer a new block exists without shipping its
// body; the receiver decides whether to fetch it.
type AnnounceBlock struct {
	Height uint64         `json:"height"`
	Hash   chainhash.Hash `json:"hash"`
	Prev   chainhash.Hash `json:"prev"`
}

// GetHeaders requests headers starting after the first hash in Locator
// the recipient recognizes, up to StopHash or MaxHeaders, whichever
// comes first.
type GetHeaders struct {
	Locator    []chainhash.Hash `json:"locator"`
	StopHash   chainhash.Hash   `json:"stop_hash"`
	MaxHeaders int              `json:"max_headers"`
}

// Headers carries a contiguous run of headers in response to GetHeaders.
type Headers struct {
	Headers []BlockHeader `json:"headers"`
}

// GetBlocks requests full block bodies by hash, used during the
// windowed body-fetch phase of headers-first sync.
type GetBlocks struct {
	Hashes []chainhash.Hash `json:"hashes"`
}

// RawBlock is one block body in a Blocks response. Raw is the JSON
// encoding of the block; encoding/json transports it as base64.
type RawBlock struct {
	Hash chainhash.Hash `json:"hash"`
	Raw  []byte         `json:"raw"`
}

// Blocks answers a GetBlocks request with the bodies the responder has.
type Blocks struct {
	Blocks []RawBlock `json:"blocks"`
}

// Inv announces newly available block or transaction hashes.
type Inv struct {
	BlockHashes []chainhash.Hash `json:"block_hashes,omitempty"`
	TxHashes    []chainhash.Hash `json:"tx_hashes,omitempty"`
}

// PrefilledTx is a transaction included directly in a CompactBlock
// rather than referenced by short ID, always including the coinbase.
type PrefilledTx struct {
	Index uint32 `json:"index"`
	Tx    *Tx    `json:"tx"`
}

// CompactBlock lets a peer reconstruct a block from transactions it
// already has in its mempool, falling back to GetBlockTxns for the rest.
type CompactBlock struct {
	Header       BlockHeader   `json:"header"`
	Nonce        uint64        `json:"nonce"`
	ShortTxIDs   []uint64      `json:"short_tx_ids"`
	PrefilledTxs []PrefilledTx `json:"prefilled_txs"`
}

// GetBlockTxns requests the full transactions at the given indices
// within a previously announced compact block.
type GetBlockTxns struct {
	BlockHash chainhash.Hash `json:"block_hash"`
	Indexes   []uint32       `json:"indexes"`
}

// BlockTxns answers a GetBlockTxns request.
type BlockTxns struct {
	BlockHash chainhash.Hash `json:"block_hash"`
	Txs       []*Tx          `json:"txs"`
}
