// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire defines the block, header, and transaction types
// exchanged over the network and persisted to the chain store, along
// with their canonical binary encodings.
package wire

import (
	"encoding/binary"

	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/chainhash"
)

// ModuleMint is the reserved module name for coinbase transactions.
// Mint calls are only valid at index 0 of a block and are never
// accepted into the mempool.
const ModuleMint = "mint"

// AccessListEntry names a storage key a transaction declares it will
// touch, allowing the chain to schedule conflicting transactions
// without executing them first.
type AccessListEntry struct {
	Module string
	Key    string
}

// Tx is Vision's account-model transaction: a nonced, signed call into a
// named module/method with an EIP-1559-style fee market.
type Tx struct {
	Nonce               uint64
	SenderPubKey        []byte
	AccessList          []AccessListEntry
	Module              string
	Method              string
	Args                []byte
	Tip                 cointype.Amount
	FeeLimit            cointype.Amount
	MaxPriorityFeePerGas cointype.Amount
	MaxFeePerGas        cointype.Amount
	Sig                 []byte
}

// SigningBytes returns the canonical byte encoding over which Sig is
// computed: every field except Sig itself, in declaration order.
func (tx *Tx) SigningBytes() []byte {
	buf := make([]byte, 0, 128+len(tx.Args))

	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], tx.Nonce)
	buf = append(buf, nonceBuf[:]...)

	buf = append(buf, tx.SenderPubKey...)

	for _, e := range tx.AccessList {
		buf = append(buf, []byte(e.Module)...)
		buf = append(buf, 0)
		buf = append(buf, []byte(e.Key)...)
		buf = append(buf, 0)
	}

	buf = append(buf, []byte(tx.Module)...)
	buf = append(buf, 0)
	buf = append(buf, []byte(tx.Method)...)
	buf = append(buf, 0)
	buf = append(buf, tx.Args...)

	var amounts [4]uint64
	amounts[0] = uint64(tx.Tip)
	amounts[1] = uint64(tx.FeeLimit)
	amounts[2] = uint64(tx.MaxPriorityFeePerGas)
	amounts[3] = uint64(tx.MaxFeePerGas)
	for _, a := range amounts {
		var amBuf [8]byte
		binary.BigEndian.PutUint64(amBuf[:], a)
		buf = append(buf, amBuf[:]...)
	}

	return buf
}

// Hash returns the SHA-256 digest of the transaction's signing bytes
// plus its signature, which uniquely identifies the transaction for
// mempool and block-inclusion purposes.
func (tx *Tx) Hash() chainhash.Hash {
	buf := tx.SigningBytes()
	buf = append(buf, tx.Sig...)
	return chainhash.HashH(buf)
}

// Weight approximates the resource cost of including tx in a block,
// used by mempool scoring and block-space allocation. It is the
// serialized size in bytes of the signing payload plus the signature.
func (tx *Tx) Weight() uint32 {
	return uint32(len(tx.SigningBytes()) + len(tx.Sig))
}

// EffectiveTip returns the tip paid per the EIP-1559-style fee market:
// min(MaxPriorityFeePerGas, MaxFeePerGas) if those fields are set,
// falling back to the flat Tip field for simple calls.
func (tx *Tx) EffectiveTip() cointype.Amount {
	if tx.MaxFeePerGas == 0 && tx.MaxPriorityFeePerGas == 0 {
		return tx.Tip
	}
	if tx.MaxPriorityFeePerGas < tx.MaxFeePerGas {
		return tx.MaxPriorityFeePerGas
	}
	return tx.MaxFeePerGas
}
