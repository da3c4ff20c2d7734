// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package extchain

import "testing"

func TestValidateAddressAcceptsKnownGoodBTCLegacyAddress(t *testing.T) {
	// The Bitcoin genesis coinbase payout address.
	if err := ValidateAddress(ChainBTC, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"); err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}
}

func TestValidateAddressAcceptsKnownGoodBTCSegwitAddress(t *testing.T) {
	// The canonical BIP-173 P2WPKH test vector.
	if err := ValidateAddress(ChainBTC, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"); err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}
}

func TestValidateAddressAcceptsKnownGoodBCHCashAddr(t *testing.T) {
	// The canonical CashAddr specification test vector.
	if err := ValidateAddress(ChainBCH, "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"); err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}
}

func TestValidateAddressRejectsGarbageInput(t *testing.T) {
	for _, c := range []Chain{ChainBTC, ChainBCH, ChainDOGE} {
		if err := ValidateAddress(c, "not-a-real-address"); err == nil {
			t.Fatalf("expected error validating garbage address for %s", c)
		}
	}
}

func TestValidateAddressRejectsUnknownChain(t *testing.T) {
	if err := ValidateAddress(Chain(99), "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"); err == nil {
		t.Fatalf("expected error for unknown chain")
	}
}

func TestChainStringRoundTrip(t *testing.T) {
	cases := map[Chain]string{ChainBTC: "BTC", ChainBCH: "BCH", ChainDOGE: "DOGE"}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Fatalf("Chain(%d).String() = %q, want %q", c, got, want)
		}
	}
}
