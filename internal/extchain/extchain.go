// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package extchain validates withdrawal addresses for the external
// custodial-exchange chains the bridge module recognizes and exposes a
// narrow broadcast interface for handing a signed raw transaction off to
// an external collaborator. It never derives keys, selects UTXOs, or
// talks to a chain RPC directly — those remain outside this node.
package extchain

import (
	"context"
	"fmt"

	"github.com/visionchain/visiond/internal/addr"
)

// Chain identifies one of the external chains Vision can bridge assets to.
type Chain uint8

const (
	// ChainBTC is Bitcoin.
	ChainBTC Chain = iota
	// ChainBCH is Bitcoin Cash.
	ChainBCH
	// ChainDOGE is Dogecoin.
	ChainDOGE
)

// String returns the chain's ticker symbol.
func (c Chain) String() string {
	switch c {
	case ChainBTC:
		return "BTC"
	case ChainBCH:
		return "BCH"
	case ChainDOGE:
		return "DOGE"
	default:
		return "UNKNOWN"
	}
}

// base58 version bytes for legacy P2PKH addresses.
const (
	btcP2PKHVersion  = 0x00
	dogeP2PKHVersion = 0x1e
)

// ValidateAddress reports whether addrStr is a structurally valid
// withdrawal address for chain c. It decodes and checksums the address
// but performs no network lookups.
func ValidateAddress(c Chain, addrStr string) error {
	switch c {
	case ChainBTC:
		if _, _, _, err := addr.DecodeBech32SegWit(addrStr); err == nil {
			return nil
		}
		version, _, err := addr.DecodeBase58Check(addrStr)
		if err != nil {
			return fmt.Errorf("invalid BTC address: %w", err)
		}
		if version != btcP2PKHVersion && version != 0x05 {
			return fmt.Errorf("invalid BTC address: unexpected version byte 0x%02x", version)
		}
		return nil
	case ChainBCH:
		_, _, _, err := addr.DecodeCashAddr(addrStr)
		if err != nil {
			return fmt.Errorf("invalid BCH address: %w", err)
		}
		return nil
	case ChainDOGE:
		version, _, err := addr.DecodeBase58Check(addrStr)
		if err != nil {
			return fmt.Errorf("invalid DOGE address: %w", err)
		}
		if version != dogeP2PKHVersion {
			return fmt.Errorf("invalid DOGE address: unexpected version byte 0x%02x", version)
		}
		return nil
	default:
		return fmt.Errorf("unknown external chain %d", c)
	}
}

// Broadcaster hands a signed raw transaction off to an external chain.
// Implementations wrap whatever transport (RPC client, message queue)
// the deployment uses; this package never implements one itself.
type Broadcaster interface {
	Broadcast(ctx context.Context, chain Chain, rawTxHex string) (txid string, err error)
}
