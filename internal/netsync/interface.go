// Copyright (c) 2020-2021 The Decred developers
// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync defines the notifier interface the P2P layer uses to
// tell connected peers about newly accepted transactions and blocks.
package netsync

import "github.com/visionchain/visiond/internal/wire"

// PeerNotifier provides an interface to notify peers of status changes
// related to blocks and transactions.
type PeerNotifier interface {
	// AnnounceNewTransactions generates and relays inventory vectors for
	// the passed transactions to connected peers.
	AnnounceNewTransactions(txs []*wire.Tx)

	// AnnounceNewBlock generates and relays an inventory vector for the
	// passed block header to connected peers.
	AnnounceNewBlock(header *wire.BlockHeader)
}
