// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addr

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// DecodeBech32 decodes a bech32 (or bech32m) string, as used by BTC
// SegWit addresses, returning the human-readable part and the raw
// 5-bit-group data payload.
func DecodeBech32(s string) (hrp string, data []byte, err error) {
	hrp, data, err = bech32.Decode(s)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: %w", err)
	}
	return hrp, data, nil
}

// DecodeBech32SegWit decodes a bech32 SegWit address into its witness
// version and converted 8-bit witness program.
func DecodeBech32SegWit(s string) (hrp string, version byte, program []byte, err error) {
	hrp, data, err := DecodeBech32(s)
	if err != nil {
		return "", 0, nil, err
	}
	if len(data) < 1 {
		return "", 0, nil, fmt.Errorf("bech32: empty data payload")
	}
	version = data[0]
	converted, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, fmt.Errorf("bech32: convert bits: %w", err)
	}
	return hrp, version, converted, nil
}
