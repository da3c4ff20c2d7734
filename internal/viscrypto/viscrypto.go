// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package viscrypto collects the signature, keying, and short-hash
// primitives shared by the chain, identity, and P2P packages.  It wraps
// stdlib crypto/ed25519 and the project's siphash dependency behind a
// single narrow surface so callers never reach for a raw crypto package
// directly.
package viscrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/dchest/siphash"
)

// PublicKeySize is the size, in bytes, of an Ed25519 public key.
const PublicKeySize = ed25519.PublicKeySize

// PrivateKeySize is the size, in bytes, of an Ed25519 private key
// (seed + public key, matching Go's convention).
const PrivateKeySize = ed25519.PrivateKeySize

// SignatureSize is the size, in bytes, of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// KeyPair is an Ed25519 signing keypair.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair creates a new random Ed25519 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// KeyPairFromSeed reconstructs a keypair from a 64-byte persisted private
// key, the layout node identity storage uses.
func KeyPairFromSeed(priv []byte) (*KeyPair, error) {
	if len(priv) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(priv))
	}
	pk := ed25519.PrivateKey(append([]byte(nil), priv...))
	pub := pk.Public().(ed25519.PublicKey)
	return &KeyPair{Public: pub, Private: pk}, nil
}

// Sign signs msg with the keypair's private key.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.Private, msg)
}

// Verify reports whether sig is a valid Ed25519 signature of msg under
// pubKey.
func Verify(pubKey, msg, sig []byte) bool {
	if len(pubKey) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(pubKey, msg, sig)
}

// ShortTxID computes the 48-bit SipHash-2-4 short transaction identifier
// used by compact blocks, keyed by k0/k1 per the legacy single-nonce
// derivation (see internal/p2p/compact.go for the BIP-152 alternative).
func ShortTxID(k0, k1 uint64, txHash []byte) uint64 {
	full := siphash.Hash(k0, k1, txHash)
	return full & 0x0000FFFFFFFFFFFF
}
