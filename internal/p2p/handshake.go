// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/internal/genesis"
	"github.com/visionchain/visiond/internal/identity"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/viscrypto"
	"github.com/visionchain/visiond/internal/wire"
)

// replayWindow bounds how long a HELLO nonce is remembered for replay
// detection. A time-indexed cache is used instead of periodically
// clearing the whole set, so a burst of handshakes near a sweep
// boundary can't slip a replay through.
const replayWindow = 120 * time.Second

// replayCapacity bounds the replay cache; the least recently used
// nonce is evicted once a newcomer would exceed it.
const replayCapacity = 1024

// maxHelloSkew bounds how far a peer's HELLO timestamp may drift from
// local time before it's rejected as stale or forged.
const maxHelloSkew = 120 * time.Second

// debugAllowAll reports whether the dev-only VISION_P2P_DEBUG_ALLOW_ALL
// bypass is set, waving every HELLO through unvalidated. Never set this
// outside a throwaway development network.
func debugAllowAll() bool {
	return os.Getenv("VISION_P2P_DEBUG_ALLOW_ALL") != ""
}

// Handshaker validates incoming HELLO messages against local network
// and identity state.
type Handshaker struct {
	params     *chaincfg.Params
	replaySeen *ttlcache.Cache[string, struct{}]
}

// NewHandshaker constructs a Handshaker for the given network
// parameters.
func NewHandshaker(params *chaincfg.Params) *Handshaker {
	h := &Handshaker{
		params: params,
		replaySeen: ttlcache.New[string, struct{}](
			ttlcache.WithTTL[string, struct{}](replayWindow),
			ttlcache.WithCapacity[string, struct{}](replayCapacity),
		),
	}
	go h.replaySeen.Start()
	return h
}

// NewHelloNonce returns a fresh random replay nonce as 32 lowercase hex
// characters.
func NewHelloNonce() (string, error) {
	var buf [wire.HelloNonceSize]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", verrors.Transient("hello_nonce_entropy", err.Error())
	}
	return hex.EncodeToString(buf[:]), nil
}

// BuildHello constructs and signs an outgoing HELLO message. An empty
// nonceHex generates a fresh random nonce.
func BuildHello(id *identity.Identity, params *chaincfg.Params, bestHeight uint64, nonceHex string) (*wire.Hello, error) {
	econHash, err := genesis.ValidateEconHash(params)
	if err != nil {
		return nil, err
	}
	if nonceHex == "" {
		nonceHex, err = NewHelloNonce()
		if err != nil {
			return nil, err
		}
	}

	h := &wire.Hello{
		NodeID:      id.NodeID,
		PubKey:      append([]byte(nil), id.KeyPair.Public...),
		GenesisHash: genesis.ComputeHash(),
		EconHash:    econHash,
		BestHeight:  bestHeight,
		NonceHex:    nonceHex,
		Timestamp:   time.Now().Unix(),
	}
	h.Sig = id.Sign(h.SigningBytes())
	return h, nil
}

// Validate checks a peer's HELLO message: timestamp freshness, pubkey
// shape, node ID binding, signature validity, replay-nonce novelty, and
// genesis/econ hash agreement, cheapest checks first.
func (h *Handshaker) Validate(hello *wire.Hello) error {
	if debugAllowAll() {
		log.Warnf("VISION_P2P_DEBUG_ALLOW_ALL set; accepting HELLO from %s unvalidated", hello.NodeID)
		return nil
	}

	skew := time.Since(time.Unix(hello.Timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxHelloSkew {
		return verrors.Reject("hello_timestamp_skew", "HELLO timestamp is outside the allowed clock skew")
	}

	if decoded, err := hex.DecodeString(hello.NonceHex); err != nil || len(decoded) != wire.HelloNonceSize {
		return verrors.Reject("hello_bad_nonce", "HELLO nonce is not 16 bytes of hex")
	}

	if len(hello.PubKey) != viscrypto.PublicKeySize {
		return verrors.Reject("hello_bad_pubkey", "HELLO pubkey is not 32 bytes")
	}

	if !identity.VerifyNodeID(hello.PubKey, hello.NodeID) {
		return verrors.Reject("hello_node_id_mismatch", "node_id does not match SHA-256(pubkey)")
	}

	if !viscrypto.Verify(hello.PubKey, hello.SigningBytes(), hello.Sig) {
		return verrors.Reject("hello_bad_signature", "HELLO signature does not verify under claimed pubkey")
	}

	if h.replaySeen.Get(hello.NonceHex) != nil {
		return verrors.Reject("hello_replay", "HELLO nonce has already been seen")
	}
	h.replaySeen.Set(hello.NonceHex, struct{}{}, ttlcache.DefaultTTL)

	wantGenesis := genesis.ComputeHash()
	if hello.GenesisHash != wantGenesis {
		return verrors.Reject("genesis_hash_mismatch", "peer genesis hash does not match local network")
	}

	if err := genesis.VerifyPeerEconHash(h.params, hello.EconHash); err != nil {
		return err
	}

	return nil
}

// Accept validates hello and, on success, builds the responder's
// HelloAck identifying this node, its chain, and its current height.
func (h *Handshaker) Accept(hello *wire.Hello, id *identity.Identity, nodeVersion string, height uint64, isAnchor bool) (*wire.HelloAck, error) {
	if err := h.Validate(hello); err != nil {
		return nil, err
	}
	return &wire.HelloAck{
		NodeID:          id.NodeID,
		PubKey:          append([]byte(nil), id.KeyPair.Public...),
		ChainID:         h.params.Name,
		GenesisHash:     genesis.ComputeHash(),
		ProtocolVersion: wire.ProtocolVersion,
		NodeVersion:     nodeVersion,
		Height:          height,
		IsAnchor:        isAnchor,
	}, nil
}

// Close stops the replay-cache background eviction goroutine.
func (h *Handshaker) Close() {
	h.replaySeen.Stop()
}
