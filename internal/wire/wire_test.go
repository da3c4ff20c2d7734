// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/visionchain/visiond/internal/chainhash"
)

func testTx(sender string, nonce uint64) *Tx {
	return &Tx{
		Nonce:        nonce,
		SenderPubKey: []byte(sender),
		Module:       "transfer",
		Method:       "send",
		Args:         []byte("payload"),
		Tip:          25,
		FeeLimit:     10_000,
		Sig:          []byte("signature"),
	}
}

func TestHeaderNonceOffsetMatchesLayout(t *testing.T) {
	h := BlockHeader{
		Version:    1,
		Height:     42,
		Timestamp:  1000,
		Difficulty: 7,
		Nonce:      0xDEADBEEF,
	}
	raw := h.Bytes()
	got := binary.BigEndian.Uint64(raw[HeaderNonceOffset : HeaderNonceOffset+8])
	if got != h.Nonce {
		t.Fatalf("nonce at HeaderNonceOffset = %#x, want %#x", got, h.Nonce)
	}
}

func TestBlockJSONRoundTrip(t *testing.T) {
	blk := &Block{
		Header: BlockHeader{
			Version:    1,
			Height:     5,
			PrevHash:   chainhash.HashH([]byte("parent")),
			Timestamp:  1234,
			Difficulty: 9,
			Nonce:      77,
		},
		Txs: []*Tx{testTx("alice", 0), testTx("bob", 3)},
	}
	blk.Header.TxRoot = ComputeTxRoot(blk.Txs)

	raw, err := json.Marshal(blk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Block
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Header.Hash() != blk.Header.Hash() {
		t.Fatalf("header hash changed across round trip: %s", spew.Sdump(decoded.Header))
	}
	if len(decoded.Txs) != len(blk.Txs) {
		t.Fatalf("tx count changed across round trip")
	}
	for i := range blk.Txs {
		if decoded.Txs[i].Hash() != blk.Txs[i].Hash() {
			t.Fatalf("tx %d hash changed across round trip: %s", i, spew.Sdump(decoded.Txs[i]))
		}
	}
	if ComputeTxRoot(decoded.Txs) != decoded.Header.TxRoot {
		t.Fatalf("decoded tx root no longer matches header commitment")
	}
}

func TestTxHashChangesWithAnyField(t *testing.T) {
	base := testTx("alice", 0)
	mutations := map[string]*Tx{
		"nonce":  testTx("alice", 1),
		"sender": testTx("aljce", 0),
	}
	tipped := testTx("alice", 0)
	tipped.Tip = 26
	mutations["tip"] = tipped

	for name, mutated := range mutations {
		if mutated.Hash() == base.Hash() {
			t.Fatalf("mutating %s did not change the tx hash", name)
		}
	}
}

func TestComputeTxRootEmptyAndOrderSensitivity(t *testing.T) {
	if ComputeTxRoot(nil) != (chainhash.Hash{}) {
		t.Fatalf("empty tx set must commit to the zero root")
	}

	a, b := testTx("alice", 0), testTx("bob", 0)
	ab := ComputeTxRoot([]*Tx{a, b})
	ba := ComputeTxRoot([]*Tx{b, a})
	if ab == ba {
		t.Fatalf("tx root must be order sensitive")
	}
}

func TestEffectiveTipFeeMarketFallback(t *testing.T) {
	flat := testTx("alice", 0)
	if flat.EffectiveTip() != flat.Tip {
		t.Fatalf("flat-tip tx should fall back to Tip")
	}

	market := testTx("alice", 0)
	market.MaxPriorityFeePerGas = 40
	market.MaxFeePerGas = 30
	if market.EffectiveTip() != 30 {
		t.Fatalf("EffectiveTip should be min(priority, max), got %d", market.EffectiveTip())
	}
}
