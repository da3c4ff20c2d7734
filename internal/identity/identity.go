// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity derives and persists the node's Ed25519 keypair and
// the identifiers computed from it: a 40-character node ID and a
// human-readable 4-4-4-4 fingerprint, both used in the HELLO handshake.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/decred/slog"

	"github.com/visionchain/visiond/internal/store"
	"github.com/visionchain/visiond/internal/verrors"
	"github.com/visionchain/visiond/internal/viscrypto"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Identity holds a node's signing keypair and the identifiers derived
// from its public key.
type Identity struct {
	mu      sync.RWMutex
	KeyPair *viscrypto.KeyPair
	NodeID  string
}

// NodeIDFromPubKey derives the 40-character hex node ID from an Ed25519
// public key: the first 20 bytes of its SHA-256 digest.
func NodeIDFromPubKey(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:20])
}

// PubKeyFingerprint returns a human-readable 4-4-4-4 uppercase-hex
// grouping of the first 8 bytes of the public key's SHA-256 digest,
// intended for display and manual comparison, not for consensus use.
func PubKeyFingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	hexStr := strings.ToUpper(hex.EncodeToString(sum[:8]))
	groups := make([]string, 0, 4)
	for i := 0; i < len(hexStr); i += 4 {
		groups = append(groups, hexStr[i:i+4])
	}
	return strings.Join(groups, "-")
}

// VerifyNodeID reports whether claimedNodeID is consistent with pubKey.
func VerifyNodeID(pubKey []byte, claimedNodeID string) bool {
	return NodeIDFromPubKey(pubKey) == claimedNodeID
}

const identityKey = "keypair"

// Init loads a previously persisted keypair from s, or generates and
// persists a new one on first run. The resulting Identity is safe for
// concurrent reads of its exported fields.
func Init(s *store.Store) (*Identity, error) {
	raw, err := s.Get(store.TreeIdentity, []byte(identityKey))
	if err != nil {
		return nil, err
	}

	var kp *viscrypto.KeyPair
	if raw != nil {
		kp, err = viscrypto.KeyPairFromSeed(raw)
		if err != nil {
			return nil, verrors.Fatal("identity_corrupt_keypair", "stored keypair could not be parsed", err)
		}
		log.Infof("loaded existing node identity")
	} else {
		kp, err = viscrypto.GenerateKeyPair()
		if err != nil {
			return nil, verrors.Fatal("identity_keygen_failed", "failed to generate node keypair", err)
		}
		if err := s.Put(store.TreeIdentity, []byte(identityKey), kp.Private); err != nil {
			return nil, err
		}
		log.Infof("generated new node identity")
	}

	id := &Identity{
		KeyPair: kp,
		NodeID:  NodeIDFromPubKey(kp.Public),
	}
	log.Infof("node identity: id=%s fingerprint=%s", id.NodeID, PubKeyFingerprint(kp.Public))
	return id, nil
}

// Sign signs msg with the node's private key.
func (id *Identity) Sign(msg []byte) []byte {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.KeyPair.Sign(msg)
}
