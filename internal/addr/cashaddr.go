// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addr

import (
	"fmt"
	"strings"
)

const cashAddrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// DecodeCashAddr decodes a BCH CashAddr string (optionally prefixed with
// its human-readable part, e.g. "bitcoincash:") and verifies its
// polymod checksum, returning the version byte and the hash payload.
func DecodeCashAddr(s string) (prefix string, version byte, hash []byte, err error) {
	lower := strings.ToLower(s)
	prefix = "bitcoincash"
	payload := lower
	if idx := strings.Index(lower, ":"); idx >= 0 {
		prefix = lower[:idx]
		payload = lower[idx+1:]
	}

	values := make([]byte, len(payload))
	for i, r := range payload {
		pos := strings.IndexRune(cashAddrCharset, r)
		if pos < 0 {
			return "", 0, nil, fmt.Errorf("cashaddr: invalid character %q", r)
		}
		values[i] = byte(pos)
	}
	if len(values) < 8 {
		return "", 0, nil, fmt.Errorf("cashaddr: payload too short")
	}

	if !cashAddrVerifyChecksum(prefix, values) {
		return "", 0, nil, fmt.Errorf("cashaddr: checksum mismatch")
	}

	data := values[:len(values)-8]
	converted, err := convertBits5to8(data)
	if err != nil {
		return "", 0, nil, fmt.Errorf("cashaddr: %w", err)
	}
	if len(converted) < 1 {
		return "", 0, nil, fmt.Errorf("cashaddr: empty payload")
	}
	return prefix, converted[0], converted[1:], nil
}

func convertBits5to8(data []byte) ([]byte, error) {
	var acc uint32
	var bits uint
	out := make([]byte, 0, len(data)*5/8)
	for _, v := range data {
		if v>>5 != 0 {
			return nil, fmt.Errorf("invalid 5-bit group %d", v)
		}
		acc = (acc << 5) | uint32(v)
		bits += 5
		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
	}
	if bits >= 5 || (acc&((1<<bits)-1)) != 0 {
		return nil, fmt.Errorf("invalid padding in 5-to-8 bit conversion")
	}
	return out, nil
}

func cashAddrPolymod(values []byte) uint64 {
	const (
		generator0 = 0x98f2bc8e61
		generator1 = 0x79b76d99e2
		generator2 = 0xf33e5fb3c4
		generator3 = 0xae2eabe2a8
		generator4 = 0x1e4f43e470
	)
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= generator0
		}
		if c0&0x02 != 0 {
			c ^= generator1
		}
		if c0&0x04 != 0 {
			c ^= generator2
		}
		if c0&0x08 != 0 {
			c ^= generator3
		}
		if c0&0x10 != 0 {
			c ^= generator4
		}
	}
	return c ^ 1
}

func cashAddrPrefixExpand(prefix string) []byte {
	out := make([]byte, 0, len(prefix)+1)
	for _, r := range prefix {
		out = append(out, byte(r)&0x1f)
	}
	return append(out, 0)
}

func cashAddrVerifyChecksum(prefix string, payload []byte) bool {
	full := append(cashAddrPrefixExpand(prefix), payload...)
	return cashAddrPolymod(full) == 0
}
