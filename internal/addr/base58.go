// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addr validates addresses for the external custodial-exchange
// chains (BTC, BCH, DOGE) that Vision's bridge module recognizes. It is
// decode-only: Vision never derives keys or constructs transactions for
// these chains, it only validates a withdrawal address shape before
// handing the payout off to an external broadcaster.
package addr

import (
	"fmt"

	"github.com/decred/base58"
)

// DecodeBase58Check decodes a Base58Check-encoded string (as used by BTC
// and DOGE legacy addresses) and returns the version byte and payload,
// verifying the embedded checksum.
func DecodeBase58Check(s string) (version byte, payload []byte, err error) {
	decoded := base58.Decode(s)
	if len(decoded) < 5 {
		return 0, nil, fmt.Errorf("base58check: decoded length %d too short", len(decoded))
	}
	payloadLen := len(decoded) - 4
	checksum := decoded[payloadLen:]
	computed := doubleSha256(decoded[:payloadLen])
	for i := 0; i < 4; i++ {
		if checksum[i] != computed[i] {
			return 0, nil, fmt.Errorf("base58check: checksum mismatch")
		}
	}
	return decoded[0], decoded[1:payloadLen], nil
}

// EncodeBase58Check encodes version and payload into a Base58Check string.
func EncodeBase58Check(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	checksum := doubleSha256(buf)
	buf = append(buf, checksum[:4]...)
	return base58.Encode(buf)
}
